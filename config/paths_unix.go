//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

// GetDefaultConfigLocation returns the default configuration file path, which
// lives in the user's configuration directory ($XDG_CONFIG_HOME on Linux).
func GetDefaultConfigLocation() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "/etc/burrow/config.yml"
	}
	return filepath.Join(dir, "burrow", "config.yml")
}

// GetDefaultLogDirectory returns the default log directory. Logs are state,
// not cache, so $XDG_STATE_HOME is preferred when it is set.
func GetDefaultLogDirectory() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "burrow")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "burrow")
	}
	return filepath.Join(os.TempDir(), "burrow")
}

func applyPlatformDefaults(c *Configuration) {
	if c.System.LogDirectory == "" {
		c.System.LogDirectory = GetDefaultLogDirectory()
	}
}
