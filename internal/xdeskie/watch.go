package xdeskie

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/1broseidon/xoverview/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Watch signals on the returned channel whenever the state file at path is
// written, created, renamed or removed. Signals coalesce: a pending signal
// is never duplicated. The watcher stops when ctx is done.
func Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	target := filepath.Clean(path)
	// xdeskie replaces the file, so watch the directory rather than the inode.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	log := logging.WithComponent("xdeskie")
	changed := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
					!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
					continue
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Debug().Err(err).Msg("state watcher error")
			}
		}
	}()

	return changed, nil
}
