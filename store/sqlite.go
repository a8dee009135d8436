package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"todomvc/model"
)

// SQLiteAdapter keeps snapshots in a key/value table, one row per storage key.
type SQLiteAdapter struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path, key string) (*SQLiteAdapter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent across calls.
	db.SetMaxOpenConns(1)

	const ddl = `CREATE TABLE IF NOT EXISTS storage (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create storage table: %w", err)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	return &SQLiteAdapter{db: db, key: key}, nil
}

// Load returns the snapshot stored under the adapter's key.
func (s *SQLiteAdapter) Load() ([]model.TodoItem, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM storage WHERE key = ?`, s.key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []model.TodoItem{}, nil
		}
		return nil, fmt.Errorf("read %q: %w", s.key, err)
	}
	return Decode([]byte(value))
}

// Save overwrites the row for the adapter's key.
func (s *SQLiteAdapter) Save(items []model.TodoItem) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO storage (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		s.key, string(data),
	)
	if err != nil {
		return fmt.Errorf("write %q: %w", s.key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteAdapter) Close() error {
	return s.db.Close()
}
