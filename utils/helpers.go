package utils

import (
	"math/rand"
	"os"
	"path/filepath"
)

// CreateFolder creates the folder (and parents) if it does not already exist.
func CreateFolder(path string) error {
	return os.MkdirAll(path, 0755)
}

// GetEnv returns the environment value for key, or fallback when unset/empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GenerateUniqueID returns a random 32-bit identifier.
func GenerateUniqueID() uint32 {
	return rand.Uint32()
}

// DefaultDataDir returns the per-user data directory for fingerprints and
// event captures. Falls back to the working directory when the home
// directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".audiosentry"
	}
	return filepath.Join(home, ".audiosentry")
}
