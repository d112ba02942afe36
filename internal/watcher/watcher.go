// ABOUTME: Watches the docs tree for markdown changes and triggers reindexing
// ABOUTME: Events are debounced so editor save bursts cause one reindex
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last change
// before reindexing.
const DefaultDebounce = 2 * time.Second

// Reindexer rebuilds the document index. *core.Ingestor implements it.
type Reindexer interface {
	Ingest(ctx context.Context) (int, error)
}

// Watcher monitors a docs directory and reindexes on markdown changes.
type Watcher struct {
	docsRoot  string
	reindexer Reindexer
	debounce  time.Duration
	logger    *zap.Logger
	fsw       *fsnotify.Watcher
}

func New(docsRoot string, reindexer Reindexer, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		docsRoot:  docsRoot,
		reindexer: reindexer,
		debounce:  debounce,
		logger:    logger,
		fsw:       fsw,
	}, nil
}

// Run watches until the context is canceled. The docs root and all of
// its subdirectories are watched; directories created later are added
// as their create events arrive.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	if err := w.addRecursive(w.docsRoot); err != nil {
		return err
	}

	w.logger.Info("watching docs for changes", zap.String("docs_root", w.docsRoot))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				// New directories need their own watch.
				if err := w.addRecursive(event.Name); err == nil {
					w.logger.Debug("watching new path", zap.String("path", event.Name))
				}
			}

			w.logger.Debug("docs changed", zap.String("path", event.Name))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			count, err := w.reindexer.Ingest(ctx)
			if err != nil {
				w.logger.Error("auto reindex failed", zap.Error(err))
				continue
			}
			w.logger.Info("auto reindex complete", zap.Int("chunks", count))

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// relevant filters events down to markdown files and directories,
// ignoring hidden paths and node_modules.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || name == "node_modules" {
		return false
	}
	if filepath.Ext(event.Name) == ".md" {
		return true
	}
	// Non-markdown names only matter when they are directories, so new
	// subtrees get watched and indexed. Plain files like LICENSE or
	// Makefile do not affect the index.
	if info, err := os.Stat(event.Name); err == nil {
		return info.IsDir()
	}
	// The path is gone. It only matters if it was a directory we were
	// watching.
	return w.isWatched(event.Name)
}

func (w *Watcher) isWatched(path string) bool {
	if w.fsw == nil {
		return false
	}
	for _, p := range w.fsw.WatchList() {
		if p == path {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
