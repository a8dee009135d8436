package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatcherReportsExternalWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	fa := NewFileAdapter(dir, "todos", 0)
	changed := make(chan struct{}, 4)

	w, err := NewWatcher(fa.Path(), func() { changed <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("new watcher failed: %v", err)
	}
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := fa.Save(sampleItems("external")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected change notification")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watcher did not stop")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	changed := make(chan struct{}, 1)
	w, err := NewWatcher(filepath.Join(dir, "todos.json"), func() { changed <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("new watcher failed: %v", err)
	}
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("[]"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case <-changed:
		t.Fatalf("unexpected notification for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	<-done
}
