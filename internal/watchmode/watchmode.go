// Package watchmode implements the supplemental continuous re-evaluation
// mode: it watches the search root for filesystem changes and re-runs a
// caller-supplied search function, debounced, grounded on the teacher's
// internal/indexing/watcher.go event-coalescing design but trimmed to
// this core's read-only query model (no incremental index to update —
// every fire just re-runs the whole search).
package watchmode

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rdump-dev/rdump/internal/debug"
)

// Options configures a watch session.
type Options struct {
	Root     string
	Debounce time.Duration // defaults to 300ms if zero
}

// RunFunc is invoked once at start and again after every debounced burst
// of filesystem events settles.
type RunFunc func(ctx context.Context) error

// Watch blocks until ctx is canceled, invoking run initially and again
// after each debounced change under Root. Directory creation events grow
// the watch set; symlink cycles are not followed (mirrors internal/walk's
// own cycle guard).
func Watch(ctx context.Context, opts Options, run RunFunc) error {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatches(watcher, opts.Root); err != nil {
		return err
	}

	if err := run(ctx); err != nil {
		return err
	}

	var mu sync.Mutex
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	scheduleRun := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			select {
			case pending <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			debug.Logf("watchmode: event %v for %s", event.Op, event.Name)
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatches(watcher, event.Name); err != nil {
						debug.Logf("watchmode: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}
			scheduleRun()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.Logf("watchmode: watcher error: %v", err)

		case <-pending:
			if err := run(ctx); err != nil {
				return err
			}
		}
	}
}

// addWatches recursively registers every directory under root, skipping
// symlinked directories to avoid cycles (the walker handles content
// traversal; the watcher only needs directory-level notifications).
func addWatches(watcher *fsnotify.Watcher, root string) error {
	visited := make(map[string]bool)
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return filepath.SkipDir
			}
			if visited[real] {
				return filepath.SkipDir
			}
			visited[real] = true
		}
		if err := watcher.Add(path); err != nil {
			debug.Logf("watchmode: failed to watch %s: %v", path, err)
		}
		return nil
	})
}
