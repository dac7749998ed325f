package config

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const appName = "tabsnap"

// ProjectDirName is the hidden per-project settings directory.
const ProjectDirName = ".tabsnap"

// Env holds process settings read from TABSNAP_* environment variables.
type Env struct {
	ConfigHome string `envconfig:"CONFIG_HOME"`
	DataHome   string `envconfig:"DATA_HOME"`
	CacheHome  string `envconfig:"CACHE_HOME"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev     bool   `envconfig:"LOG_DEV" default:"false"`
	Editor     string `envconfig:"EDITOR"`
}

// LoadEnv reads the environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(appName, &env); err != nil {
		return Env{}, err
	}
	return env, nil
}

// ConfigPath returns the user config file path.
func (e Env) ConfigPath() string {
	return filepath.Join(xdgDir(e.ConfigHome, "XDG_CONFIG_HOME", ".config"), "config.yaml")
}

// DataDir returns tabsnap's private storage directory, used by global mode.
func (e Env) DataDir() string {
	return xdgDir(e.DataHome, "XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CacheDir holds the cursor state and the log file.
func (e Env) CacheDir() string {
	return xdgDir(e.CacheHome, "XDG_CACHE_HOME", ".cache")
}

// LogPath returns the log file path.
func (e Env) LogPath() string {
	return filepath.Join(e.CacheDir(), appName+".log")
}

// EditorCommand returns the editor to launch in tmux panes, preferring
// TABSNAP_EDITOR, then $EDITOR, then fallback.
func (e Env) EditorCommand(fallback string) string {
	if e.Editor != "" {
		return e.Editor
	}
	if ed := os.Getenv("EDITOR"); ed != "" {
		return ed
	}
	return fallback
}

func xdgDir(override, xdgVar, homeRel string) string {
	if override != "" {
		return override
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, homeRel, appName)
}
