package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// StateDir represents a validated directory path holding the agent's local
// state: the anonymous credential and the presence status file.
type StateDir string

// NewStateDir creates a new StateDir.
func NewStateDir(path string) (StateDir, error) {
	if len(path) == 0 {
		return "", errors.New("state directory cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if strings.ContainsAny(cleanPath, "<>:\"|?*") {
		return "", fmt.Errorf("state directory contains invalid characters: %s", cleanPath)
	}

	return StateDir(cleanPath), nil
}
