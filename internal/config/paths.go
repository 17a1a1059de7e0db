package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvConfigPath is the environment variable holding the config file path
	EnvConfigPath = "DEVICE_SCANNER_CONFIG"
)

// ErrConfigPathUnset is returned when EnvConfigPath is empty
var ErrConfigPathUnset = errors.New(EnvConfigPath + " is not set")

// PathFromEnv returns the config path named by EnvConfigPath
func PathFromEnv() (string, error) {
	path := strings.TrimSpace(os.Getenv(EnvConfigPath))
	if path == "" {
		return "", ErrConfigPathUnset
	}
	return path, nil
}

// isTOML returns true if the path should be decoded as TOML
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
