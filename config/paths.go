package config

import (
	"os"
	"path/filepath"
	"strings"
)

func findUserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "todomvc", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "todomvc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".todomvc"
	}
	return filepath.Join(home, ".local", "share", "todomvc")
}

// expandPath expands a leading ~ and environment variables.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, strings.TrimPrefix(expanded, "~"))
	}
	return expanded
}
