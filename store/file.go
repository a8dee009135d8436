package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"todomvc/model"
)

const defaultRotatingBackups = 10

// FileAdapter stores the snapshot as <dir>/<key>.json.
type FileAdapter struct {
	path    string
	backups int
}

// NewFileAdapter returns an adapter for key inside dir.
// backups caps the timestamped backup set; values <= 0 use the default.
func NewFileAdapter(dir, key string, backups int) *FileAdapter {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	if backups <= 0 {
		backups = defaultRotatingBackups
	}
	return &FileAdapter{
		path:    filepath.Join(dir, key+".json"),
		backups: backups,
	}
}

// Path returns the snapshot file location.
func (f *FileAdapter) Path() string {
	return f.path
}

// Load reads the snapshot. A missing file yields no items.
// A corrupt file is moved aside and reported as ErrCorrupt.
func (f *FileAdapter) Load() ([]model.TodoItem, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.TodoItem{}, nil
		}
		return nil, err
	}
	items, err := Decode(data)
	if err == nil {
		return items, nil
	}

	corruptPath, moveErr := moveCorruptFile(f.path)
	if moveErr != nil {
		return nil, fmt.Errorf("%w (moving corrupt file failed: %v)", err, moveErr)
	}
	if corruptPath != "" {
		return nil, fmt.Errorf("%w (moved to %s)", err, filepath.Base(corruptPath))
	}
	return nil, err
}

// Save writes safely using temporary file + atomic rename.
// The previous snapshot is kept as .bak plus a rotating timestamped set.
func (f *FileAdapter) Save(items []model.TodoItem) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}
	if err := ensureDir(f.path); err != nil {
		return err
	}
	if err := f.backup(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, f.path)
}

// Restore replaces the snapshot with the newest readable backup.
// It returns the restored items and the backup file used. The snapshot being
// replaced goes through the normal backup rotation first.
func (f *FileAdapter) Restore() ([]model.TodoItem, string, error) {
	items, backupPath, err := f.latestValidBackup()
	if err != nil {
		return nil, "", err
	}
	if err := f.Save(items); err != nil {
		return nil, "", fmt.Errorf("restore backup: %w", err)
	}
	return items, backupPath, nil
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func (f *FileAdapter) backup() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	// An unreadable snapshot must not displace a good .bak.
	if _, err := Decode(data); err != nil {
		return nil
	}

	if err := os.WriteFile(f.path+".bak", data, 0o644); err != nil {
		return err
	}

	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	rotatingPath := fmt.Sprintf("%s.bak.%s", f.path, timestamp)
	if err := os.WriteFile(rotatingPath, data, 0o644); err != nil {
		return err
	}

	return f.pruneRotatingBackups()
}

func (f *FileAdapter) pruneRotatingBackups() error {
	files, err := filepath.Glob(f.path + ".bak.*")
	if err != nil {
		return err
	}
	if len(files) <= f.backups {
		return nil
	}

	sort.Strings(files)
	for _, old := range files[:len(files)-f.backups] {
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (f *FileAdapter) latestValidBackup() ([]model.TodoItem, string, error) {
	candidates := make([]string, 0, f.backups+1)
	latest := f.path + ".bak"
	if _, err := os.Stat(latest); err == nil {
		candidates = append(candidates, latest)
	}
	rotating, err := filepath.Glob(f.path + ".bak.*")
	if err != nil {
		return nil, "", err
	}
	// Timestamped names sort chronologically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(rotating)))
	candidates = append(candidates, rotating...)

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		items, err := Decode(data)
		if err != nil {
			continue
		}
		return items, candidate, nil
	}
	return nil, "", ErrNoBackup
}

func moveCorruptFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	corruptPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.corrupt-%s%s", name, timestamp, ext))
	if err := os.Rename(path, corruptPath); err != nil {
		return "", err
	}
	return corruptPath, nil
}
