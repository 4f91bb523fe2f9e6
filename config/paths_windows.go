//go:build windows

package config

import (
	"os"
	"path/filepath"
)

// GetDefaultConfigLocation returns the default configuration file path for
// Windows, inside %APPDATA%.
func GetDefaultConfigLocation() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = "C:\\ProgramData"
		}
		dir = programData
	}
	return filepath.Join(dir, "Burrow", "config.yml")
}

// GetDefaultLogDirectory returns the default log directory for Windows, inside
// %LOCALAPPDATA%.
func GetDefaultLogDirectory() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "Burrow", "logs")
}

func applyPlatformDefaults(c *Configuration) {
	if c.System.LogDirectory == "" {
		c.System.LogDirectory = GetDefaultLogDirectory()
	}
}
