package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvHome overrides the grader home directory.
const EnvHome = "GRADER_HOME"

// GetGraderHome returns the grader home directory
// Priority order:
//  1. GRADER_HOME environment variable (if set)
//  2. ~/.grader
//  3. .grader in the current working directory (no home directory)
//
// The directory is created if it doesn't exist
func GetGraderHome() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create grader home directory: %w", err)
		}
		return home, nil
	}

	base, err := os.UserHomeDir()
	if err != nil {
		base, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}

	graderHome := filepath.Join(base, ".grader")
	if err := os.MkdirAll(graderHome, 0755); err != nil {
		return "", fmt.Errorf("create grader home directory: %w", err)
	}
	return graderHome, nil
}

// GetHistoryDBPath returns the default history database path:
// $GRADER_HOME/history.db
func GetHistoryDBPath() (string, error) {
	home, err := GetGraderHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}

// ResolveHistoryDBPath returns c.History.DBPath, or the default path when it is empty.
func (c *Config) ResolveHistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	return GetHistoryDBPath()
}
