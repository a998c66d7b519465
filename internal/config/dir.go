package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// appDirName is a directory in the user's config and data directories where atlassian-search keeps its files
	appDirName string = "atlassian-search"
	// cacheDirName is the subdirectory of the data directory holding cached search results
	cacheDirName string = "cache"
)

func MustConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		panic(fmt.Errorf("cannot obtain user config dir: %w", err))
	}

	return filepath.Join(configDir, appDirName)
}

// CacheDir returns the directory where search results are cached
func CacheDir() (string, error) {
	var dataDir string

	// Try XDG_DATA_HOME first, then fallback to ~/.local/share
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		dataDir = xdgDataHome
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot obtain user home dir: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, appDirName, cacheDirName), nil
}
