package config

import (
	"os"
	"path/filepath"

	"github.com/tungetti/golem/internal/constants"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       DefaultLogLevel,
		LogFile:        "",
		DryRun:         false,
		Verbose:        false,
		Quiet:          false,
		NoColor:        false,
		ConfigDir:      defaultConfigDir(),
		Timeout:        constants.DefaultTimeout,
		CommandTimeout: constants.CommandTimeout,
	}
}

// defaultConfigDir returns the XDG config directory for golem.
// Falls back to ~/.config/golem if XDG_CONFIG_HOME is not set.
func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, constants.AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return filepath.Join(".", constants.DefaultConfigDir)
	}
	return filepath.Join(home, constants.DefaultConfigDir)
}

// GetConfigDir returns the configuration directory, respecting XDG.
// This is exported for use by other packages that need the config path.
func GetConfigDir() string {
	return defaultConfigDir()
}
