package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 100 * time.Millisecond

// Watcher reports changes made to a snapshot file by other processes,
// the terminal counterpart of the browser "storage" event.
type Watcher struct {
	path     string
	onChange func()
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger
}

// NewWatcher watches path. The parent directory is watched rather than the
// file itself so atomic renames are observed.
func NewWatcher(path string, onChange func(), logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		fsw:      fsw,
		debounce: defaultWatchDebounce,
		logger:   logger,
	}, nil
}

// Run delivers debounced change notifications until ctx is done.
// It closes the underlying fsnotify watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.fsw.Close()
	}()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("storage event", "op", event.Op.String(), "path", event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("storage watcher error", "err", err)
		case <-fire:
			fire = nil
			w.onChange()
		}
	}
}

// Close stops watching without waiting for Run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
