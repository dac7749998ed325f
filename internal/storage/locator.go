// Package storage locates the directory session files live in and lists them.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jh3/tabsnap/internal/config"
	"github.com/jh3/tabsnap/internal/host"
)

// SessionsDirName is the fixed subdirectory holding session files.
const SessionsDirName = "sessions"

// Mode selects where session files are stored.
type Mode string

const (
	ModeWorkspace Mode = "workspace"
	ModeGlobal    Mode = "global"
	ModeCustom    Mode = "custom"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeWorkspace, ModeGlobal, ModeCustom}

// ParseMode maps a setting value to a Mode, defaulting to workspace.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeGlobal, ModeCustom:
		return Mode(s)
	default:
		return ModeWorkspace
	}
}

// Label is the human-readable name of a mode.
func (m Mode) Label() string {
	switch m {
	case ModeGlobal:
		return "Global storage"
	case ModeCustom:
		return "Custom folder"
	default:
		return "Workspace"
	}
}

// Settings is the configuration the locator reads and writes back.
type Settings interface {
	Get(key config.Key) string
	Update(key config.Key, value string) error
}

// ResolveOptions control Resolve.
type ResolveOptions struct {
	// Prompt allows asking the user for a workspace root or custom folder.
	Prompt bool
	// Create makes the sessions directory if it does not exist.
	Create bool
}

// Locator resolves the sessions directory for the configured mode.
type Locator struct {
	settings  Settings
	roots     []string
	globalDir string
	prompter  host.Prompter
	log       *zap.Logger
}

// NewLocator creates a locator. roots are the open workspace folders and
// globalDir is tabsnap's private storage directory.
func NewLocator(settings Settings, roots []string, globalDir string, prompter host.Prompter, log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{
		settings:  settings,
		roots:     roots,
		globalDir: globalDir,
		prompter:  prompter,
		log:       log.Named("storage"),
	}
}

// Mode returns the configured storage mode.
func (l *Locator) Mode() Mode {
	return ParseMode(l.settings.Get(config.KeyFileLocation))
}

// SetMode persists a new storage mode.
func (l *Locator) SetMode(m Mode) error {
	return l.settings.Update(config.KeyFileLocation, string(m))
}

// Roots returns the open workspace folders.
func (l *Locator) Roots() []string {
	return l.roots
}

// Resolve returns the sessions directory. ok is false when no directory can
// be determined without prompting, or the user declined a prompt.
func (l *Locator) Resolve(ctx context.Context, opts ResolveOptions) (dir string, ok bool, err error) {
	mode := l.Mode()
	switch mode {
	case ModeGlobal:
		if l.globalDir == "" {
			return "", false, nil
		}
		dir = filepath.Join(l.globalDir, SessionsDirName)
	case ModeCustom:
		folder, ok, err := l.customFolder(ctx, opts.Prompt)
		if err != nil || !ok {
			return "", false, err
		}
		dir = filepath.Join(folder, SessionsDirName)
	default:
		root, ok, err := l.workspaceRoot(ctx, opts.Prompt)
		if err != nil || !ok {
			return "", false, err
		}
		dir = filepath.Join(root, config.ProjectDirName, SessionsDirName)
	}

	if opts.Create {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", false, err
		}
	}
	l.log.Debug("resolved sessions dir", zap.String("mode", string(mode)), zap.String("dir", dir))
	return dir, true, nil
}

func (l *Locator) workspaceRoot(ctx context.Context, prompt bool) (string, bool, error) {
	if configured := l.settings.Get(config.KeyWorkspaceFolder); isDir(configured) {
		return configured, true, nil
	}

	switch {
	case len(l.roots) == 0:
		return "", false, nil
	case len(l.roots) == 1:
		// Unambiguous, so nothing is persisted.
		return l.roots[0], true, nil
	case !prompt:
		return "", false, nil
	}

	root, ok, err := l.PickRoot(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	if err := l.settings.Update(config.KeyWorkspaceFolder, root); err != nil {
		return "", false, err
	}
	return root, true, nil
}

// PickRoot asks the user to choose one of the workspace folders.
func (l *Locator) PickRoot(ctx context.Context) (string, bool, error) {
	items := make([]host.Item, len(l.roots))
	for i, r := range l.roots {
		items[i] = host.Item{Label: filepath.Base(r), Description: r}
	}
	idx, err := l.prompter.Pick(ctx, "Select workspace folder for sessions", items)
	if err != nil || idx < 0 || idx >= len(l.roots) {
		return "", false, err
	}
	return l.roots[idx], true, nil
}

func (l *Locator) customFolder(ctx context.Context, prompt bool) (string, bool, error) {
	if configured := l.settings.Get(config.KeyCustomFolder); isDir(configured) {
		return configured, true, nil
	}
	if !prompt {
		return "", false, nil
	}
	return l.ChooseCustomFolder(ctx)
}

// ChooseCustomFolder opens the folder dialog and persists the choice.
func (l *Locator) ChooseCustomFolder(ctx context.Context) (string, bool, error) {
	folder, err := l.prompter.PickFolder(ctx, "Select folder for sessions")
	if err != nil || folder == "" {
		return "", false, err
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", false, err
	}
	if err := l.settings.Update(config.KeyCustomFolder, abs); err != nil {
		return "", false, err
	}
	return abs, true, nil
}

// Describe returns a one-line description of the storage location.
func (l *Locator) Describe(ctx context.Context) string {
	dir, ok, err := l.Resolve(ctx, ResolveOptions{})
	if err != nil || !ok {
		return fmt.Sprintf("%s: not set", l.Mode().Label())
	}
	return fmt.Sprintf("%s: %s", l.Mode().Label(), dir)
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
