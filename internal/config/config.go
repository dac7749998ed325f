package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	apperr "github.com/jh3/tabsnap/internal/errors"
)

// Key names a user-facing setting.
type Key string

const (
	KeyFileLocation      Key = "file_location"
	KeyWorkspaceFolder   Key = "workspace_folder"
	KeyCustomFolder      Key = "custom_folder"
	KeySaveBeforeRestore Key = "save_before_restore"
)

// Tmux contains settings for the tmux workbench. Editor may use the
// placeholders {file}, {line} and {col}; without them "+{line} {file}" is
// appended. An empty Session derives the name from the workspace root.
type Tmux struct {
	Session  string   `yaml:"session,omitempty"`
	Editor   string   `yaml:"editor,omitempty"`
	SaveKeys []string `yaml:"save_keys,omitempty"`
}

// Settings holds the values one scope defines. Empty fields are unset.
type Settings struct {
	FileLocation      string `yaml:"file_location,omitempty"`
	WorkspaceFolder   string `yaml:"workspace_folder,omitempty"`
	CustomFolder      string `yaml:"custom_folder,omitempty"`
	SaveBeforeRestore string `yaml:"save_before_restore,omitempty"`
	Tmux              Tmux   `yaml:"tmux,omitempty"`
}

// DefaultSettings returns the values used when no scope sets a key.
func DefaultSettings() Settings {
	return Settings{
		FileLocation:      "workspace",
		SaveBeforeRestore: "ask",
		Tmux: Tmux{
			Editor:   "vi",
			SaveKeys: []string{"Escape", ":wa", "Enter"},
		},
	}
}

func (s *Settings) get(key Key) string {
	switch key {
	case KeyFileLocation:
		return s.FileLocation
	case KeyWorkspaceFolder:
		return s.WorkspaceFolder
	case KeyCustomFolder:
		return s.CustomFolder
	case KeySaveBeforeRestore:
		return s.SaveBeforeRestore
	}
	return ""
}

func (s *Settings) set(key Key, value string) {
	switch key {
	case KeyFileLocation:
		s.FileLocation = value
	case KeyWorkspaceFolder:
		s.WorkspaceFolder = value
	case KeyCustomFolder:
		s.CustomFolder = value
	case KeySaveBeforeRestore:
		s.SaveBeforeRestore = value
	}
}

// Scope is one settings file.
type Scope struct {
	Name     string
	Path     string
	Settings Settings
}

func loadScope(name, path string) (*Scope, error) {
	sc := &Scope{Name: name, Path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return sc, nil
	}
	if err != nil {
		return nil, apperr.ConfigLoadFailed(path, err)
	}
	if err := yaml.Unmarshal(data, &sc.Settings); err != nil {
		return nil, apperr.ConfigLoadFailed(path, err)
	}
	return sc, nil
}

func (sc *Scope) save() error {
	if err := os.MkdirAll(filepath.Dir(sc.Path), 0755); err != nil {
		return apperr.ConfigSaveFailed(sc.Path, err)
	}
	data, err := yaml.Marshal(&sc.Settings)
	if err != nil {
		return apperr.ConfigSaveFailed(sc.Path, err)
	}
	if err := os.WriteFile(sc.Path, data, 0644); err != nil {
		return apperr.ConfigSaveFailed(sc.Path, err)
	}
	return nil
}

// Store resolves settings across scopes ordered from broadest to most specific.
type Store struct {
	scopes   []*Scope
	defaults Settings
}

// WorkspaceSettingsPath returns the workspace scope file under a project root.
func WorkspaceSettingsPath(root string) string {
	return filepath.Join(root, ProjectDirName, "settings.yaml")
}

// Load reads the user scope and, when a workspace root is given, the workspace scope.
func Load(userPath, workspaceRoot string) (*Store, error) {
	user, err := loadScope("user", userPath)
	if err != nil {
		return nil, err
	}
	s := &Store{scopes: []*Scope{user}, defaults: DefaultSettings()}

	if workspaceRoot != "" {
		ws, err := loadScope("workspace", WorkspaceSettingsPath(workspaceRoot))
		if err != nil {
			return nil, err
		}
		s.scopes = append(s.scopes, ws)
	}
	return s, nil
}

// Scopes returns the scopes from broadest to most specific.
func (s *Store) Scopes() []*Scope {
	return s.scopes
}

// Get returns the most specific non-empty value, else the default.
func (s *Store) Get(key Key) string {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v := s.scopes[i].Settings.get(key); v != "" {
			return v
		}
	}
	return s.defaults.get(key)
}

// workspaceKeys are written to the most specific scope when no scope sets
// them yet, since their values only make sense for one project.
var workspaceKeys = map[Key]bool{
	KeyWorkspaceFolder: true,
}

// Update writes value at the most specific scope that already sets key, or
// at the broadest scope when none does, and persists that scope.
func (s *Store) Update(key Key, value string) error {
	target := s.scopes[0]
	if workspaceKeys[key] {
		target = s.scopes[len(s.scopes)-1]
	}
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].Settings.get(key) != "" {
			target = s.scopes[i]
			break
		}
	}
	target.Settings.set(key, value)
	return target.save()
}

// Tmux returns the effective tmux settings.
func (s *Store) Tmux() Tmux {
	out := s.defaults.Tmux
	for _, sc := range s.scopes {
		t := sc.Settings.Tmux
		if t.Session != "" {
			out.Session = t.Session
		}
		if t.Editor != "" {
			out.Editor = t.Editor
		}
		if len(t.SaveKeys) > 0 {
			out.SaveKeys = t.SaveKeys
		}
	}
	return out
}
