// ABOUTME: Tests for the debounced docs watcher
// ABOUTME: Uses real temp directories and short debounce intervals
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type countingReindexer struct {
	calls atomic.Int32
	done  chan struct{}
}

func (c *countingReindexer) Ingest(context.Context) (int, error) {
	c.calls.Add(1)
	select {
	case c.done <- struct{}{}:
	default:
	}
	return 1, nil
}

func startWatcher(t *testing.T, dir string, r Reindexer) context.CancelFunc {
	t.Helper()
	w, err := New(dir, r, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()

	// Give the watcher a moment to register before we touch files.
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestWatcher_ReindexesOnMarkdownChange(t *testing.T) {
	dir := t.TempDir()
	r := &countingReindexer{done: make(chan struct{}, 1)}

	cancel := startWatcher(t, dir, r)
	defer cancel()

	if err := os.WriteFile(filepath.Join(dir, "doc.md"), []byte("# Hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-r.done:
	case <-time.After(3 * time.Second):
		t.Fatal("reindex was not triggered")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	r := &countingReindexer{done: make(chan struct{}, 1)}

	cancel := startWatcher(t, dir, r)
	defer cancel()

	// A burst of writes inside the debounce window.
	for i := 0; i < 5; i++ {
		os.WriteFile(filepath.Join(dir, "doc.md"), []byte("# Rev"), 0o644)
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-r.done:
	case <-time.After(3 * time.Second):
		t.Fatal("reindex was not triggered")
	}

	// Let any stragglers land before counting.
	time.Sleep(300 * time.Millisecond)
	if got := r.calls.Load(); got != 1 {
		t.Errorf("reindexed %d times for one burst, want 1", got)
	}
}

func TestWatcher_IgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	r := &countingReindexer{done: make(chan struct{}, 1)}

	cancel := startWatcher(t, dir, r)
	defer cancel()

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not markdown"), 0o644)
	os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("# hidden"), 0o644)
	os.WriteFile(filepath.Join(dir, "LICENSE"), []byte("MIT"), 0o644)

	select {
	case <-r.done:
		t.Fatal("non-markdown change should not trigger reindex")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "LICENSE"), []byte("MIT"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w := &Watcher{}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"markdown file", filepath.Join(dir, "guide.md"), true},
		{"subdirectory", filepath.Join(dir, "sub"), true},
		{"text file", filepath.Join(dir, "notes.txt"), false},
		{"hidden markdown", filepath.Join(dir, ".hidden.md"), false},
		{"node_modules", filepath.Join(dir, "node_modules"), false},
		{"extension-less file", filepath.Join(dir, "LICENSE"), false},
		{"removed unwatched path", filepath.Join(dir, "gone"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.relevant(fsnotify.Event{Name: tt.path, Op: fsnotify.Write})
			if got != tt.want {
				t.Errorf("relevant(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsWatched(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	w, err := New(dir, &countingReindexer{done: make(chan struct{}, 1)}, time.Second, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer w.fsw.Close()

	if err := w.addRecursive(dir); err != nil {
		t.Fatalf("addRecursive: %v", err)
	}

	if !w.isWatched(sub) {
		t.Errorf("isWatched(%q) = false, want true", sub)
	}
	if w.isWatched(filepath.Join(dir, "other")) {
		t.Error("isWatched should be false for paths never added")
	}
}
