package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "socialthread"

// xdgDir resolves an XDG base directory for this app, falling back to
// $HOME/<fallback>/socialthread when env is unset.
func xdgDir(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	parts := append([]string{home}, fallback...)

	return filepath.Join(append(parts, appName)...), nil
}

// Dir returns the config directory.
// Respects XDG_CONFIG_HOME; defaults to $HOME/.config/socialthread.
func Dir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.json"), nil
}

// CachePath returns the full path to the feed cache file.
// Respects XDG_CACHE_HOME; defaults to $HOME/.cache/socialthread.
func CachePath() (string, error) {
	dir, err := xdgDir("XDG_CACHE_HOME", ".cache")
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "feed.json"), nil
}

// SessionPath returns the full path to the stored login session.
// Respects XDG_STATE_HOME; defaults to $HOME/.local/state/socialthread.
func SessionPath() (string, error) {
	dir, err := xdgDir("XDG_STATE_HOME", ".local", "state")
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "session.json"), nil
}
