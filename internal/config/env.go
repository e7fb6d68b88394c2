package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// ProjectEnvFile is the per-directory env file.
const ProjectEnvFile = ".deskpilot.env"

// LoadEnvFiles loads env files into the process environment.
// Load order (later wins): global (~/.config/deskpilot/env), then project (.deskpilot.env).
// Actual environment variables always win: keys already set before loading are never overwritten.
func LoadEnvFiles() {
	origKeys := make(map[string]bool)
	for _, entry := range os.Environ() {
		if k, _, ok := strings.Cut(entry, "="); ok {
			origKeys[k] = true
		}
	}

	merged := make(map[string]string)
	mergeEnvFile(merged, GlobalEnvPath())
	mergeEnvFile(merged, ProjectEnvFile)

	for k, v := range merged {
		if !origKeys[k] {
			_ = os.Setenv(k, v)
		}
	}
}

// mergeEnvFile reads a dotenv file and merges into dst (later call overwrites earlier).
// Silently skips missing or unreadable files.
func mergeEnvFile(dst map[string]string, path string) {
	envs, err := godotenv.Read(path)
	if err != nil {
		return
	}
	for k, v := range envs {
		dst[k] = v
	}
}

// GlobalEnvPath returns the path to the global deskpilot env file.
func GlobalEnvPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "deskpilot", "env")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "deskpilot", "env")
}
