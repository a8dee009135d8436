// Package config loads todomvc settings from defaults, a TOML file, and the
// environment. Command-line flags are layered on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"todomvc/model"
	"todomvc/store"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	DefaultBackups = 10
)

var ErrInvalidBackend = errors.New("invalid storage backend")

// Config is the full application configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	// Filter is the initial view filter (All, Active, Completed).
	Filter string `toml:"filter"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Key     string `toml:"key"`
	Backups int    `toml:"backups"`
	Watch   bool   `toml:"watch"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Dir:     defaultDataDir(),
			Key:     store.DefaultKey,
			Backups: DefaultBackups,
			Watch:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Filter: string(model.FilterAll),
	}
}

// Load applies, in order: defaults, the config file, and environment variables.
// An explicit path must exist; otherwise the user config file is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else if userFile := findUserConfigFile(); userFile != "" {
		if err := loadFile(cfg, userFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userFile, err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize normalizes values and validates the result.
// Call it again after applying flag overrides.
func (c *Config) Finalize() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("%w: %q (want file, sqlite or memory)", ErrInvalidBackend, c.Storage.Backend)
	}

	c.Storage.Dir = expandPath(strings.TrimSpace(c.Storage.Dir))
	if c.Storage.Dir == "" {
		c.Storage.Dir = defaultDataDir()
	}
	c.Storage.Key = strings.TrimSpace(c.Storage.Key)
	if c.Storage.Key == "" {
		c.Storage.Key = store.DefaultKey
	}
	if strings.ContainsAny(c.Storage.Key, `/\`) {
		return fmt.Errorf("storage key %q must not contain path separators", c.Storage.Key)
	}
	if c.Storage.Backups <= 0 {
		c.Storage.Backups = DefaultBackups
	}

	c.Log.File = expandPath(strings.TrimSpace(c.Log.File))
	c.Filter = string(model.ParseFilter(c.Filter))
	return nil
}

// SQLitePath is the database location for the sqlite backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Storage.Dir, "todomvc.db")
}

func loadFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(expandPath(path), cfg); err != nil {
		return err
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODOMVC_STORAGE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("TODOMVC_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("TODOMVC_KEY"); v != "" {
		cfg.Storage.Key = v
	}
	if v := os.Getenv("TODOMVC_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Backups = n
		}
	}
	if v := os.Getenv("TODOMVC_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.Watch = b
		}
	}
	if v := os.Getenv("TODOMVC_FILTER"); v != "" {
		cfg.Filter = v
	}
	if v := os.Getenv("TODOMVC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TODOMVC_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TODOMVC_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
