package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/jh3/tabsnap/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(filepath.Join(dir, "config.yaml"), "")
	require.NoError(t, err)

	assert.Equal(t, "workspace", s.Get(KeyFileLocation))
	assert.Equal(t, "ask", s.Get(KeySaveBeforeRestore))
	assert.Equal(t, "", s.Get(KeyCustomFolder))
	assert.Equal(t, "", s.Tmux().Session)
	assert.Equal(t, "vi", s.Tmux().Editor)
	assert.Len(t, s.Scopes(), 1)
}

func TestGet_MostSpecificWins(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "project")
	userPath := filepath.Join(dir, "config.yaml")

	writeFile(t, userPath, "file_location: global\nsave_before_restore: yes\n")
	writeFile(t, WorkspaceSettingsPath(root), "file_location: custom\n")

	s, err := Load(userPath, root)
	require.NoError(t, err)

	assert.Equal(t, "custom", s.Get(KeyFileLocation))
	assert.Equal(t, "yes", s.Get(KeySaveBeforeRestore))
}

func TestUpdate_WritesMostSpecificExistingScope(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "project")
	userPath := filepath.Join(dir, "config.yaml")

	writeFile(t, userPath, "file_location: global\n")
	writeFile(t, WorkspaceSettingsPath(root), "custom_folder: /old\n")

	s, err := Load(userPath, root)
	require.NoError(t, err)

	require.NoError(t, s.Update(KeyCustomFolder, "/new"))
	require.NoError(t, s.Update(KeyFileLocation, "custom"))

	reloaded, err := Load(userPath, root)
	require.NoError(t, err)
	assert.Equal(t, "/new", reloaded.Scopes()[1].Settings.CustomFolder)
	assert.Equal(t, "custom", reloaded.Scopes()[0].Settings.FileLocation)
	assert.Equal(t, "", reloaded.Scopes()[1].Settings.FileLocation)
}

func TestUpdate_UnsetKeyGoesToBroadestScope(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "project")
	userPath := filepath.Join(dir, "nested", "config.yaml")

	s, err := Load(userPath, root)
	require.NoError(t, err)

	require.NoError(t, s.Update(KeyCustomFolder, "/sessions"))

	assert.FileExists(t, userPath)
	assert.NoFileExists(t, WorkspaceSettingsPath(root))
	assert.Equal(t, "/sessions", s.Get(KeyCustomFolder))
}

func TestUpdate_WorkspaceFolderStaysInWorkspace(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "config.yaml")
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")

	s, err := Load(userPath, a)
	require.NoError(t, err)
	require.NoError(t, s.Update(KeyWorkspaceFolder, a))

	assert.FileExists(t, WorkspaceSettingsPath(a))
	assert.NoFileExists(t, userPath)

	other, err := Load(userPath, b)
	require.NoError(t, err)
	assert.Equal(t, "", other.Get(KeyWorkspaceFolder))
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "config.yaml")
	writeFile(t, userPath, "file_location: [unterminated\n")

	_, err := Load(userPath, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConfig))
}

func TestTmux_Merge(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "project")
	userPath := filepath.Join(dir, "config.yaml")

	writeFile(t, userPath, "tmux:\n  editor: nvim\n")
	writeFile(t, WorkspaceSettingsPath(root), "tmux:\n  session: work\n  save_keys: [\":w\", Enter]\n")

	s, err := Load(userPath, root)
	require.NoError(t, err)

	tm := s.Tmux()
	assert.Equal(t, "nvim", tm.Editor)
	assert.Equal(t, "work", tm.Session)
	assert.Equal(t, []string{":w", "Enter"}, tm.SaveKeys)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TABSNAP_DATA_HOME", "/data/tabsnap")
	t.Setenv("TABSNAP_LOG_LEVEL", "debug")
	t.Setenv("TABSNAP_LOG_DEV", "true")
	t.Setenv("TABSNAP_EDITOR", "hx")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "/data/tabsnap", env.DataDir())
	assert.Equal(t, "debug", env.LogLevel)
	assert.True(t, env.LogDev)
	assert.Equal(t, "hx", env.EditorCommand("vi"))
}

func TestEnv_XDGFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")

	env := Env{}
	assert.Equal(t, filepath.Join("/xdg/config", "tabsnap", "config.yaml"), env.ConfigPath())
	assert.Equal(t, filepath.Join("/xdg/cache", "tabsnap", "tabsnap.log"), env.LogPath())
}

func TestEnv_EditorFallback(t *testing.T) {
	t.Setenv("EDITOR", "")
	assert.Equal(t, "vi", Env{}.EditorCommand("vi"))

	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", Env{}.EditorCommand("vi"))
}
