package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const allowListFilename = "allowlist.json"

// StateDir resolves the base directory for durable bot state.
// TWM_STATE_DIR wins; otherwise ~/.twmbot.
func StateDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("TWM_STATE_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".twmbot"), nil
}

func ConfigPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// AllowListPath returns the allow-list record path inside dir. The
// filename is fixed; only the base directory is configurable.
func AllowListPath(dir string) string {
	return filepath.Join(dir, allowListFilename)
}

func EnsureStateDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
