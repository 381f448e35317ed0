package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-sod/tiebreak/internal/logging"
)

// WatchFile calls onChange after path is written, created or renamed into
// place. Events closer than settle to each other are coalesced. It watches
// the parent directory so editors that replace the file are noticed too, and
// blocks until ctx is done.
func WatchFile(ctx context.Context, path string, settle time.Duration, onChange func(context.Context) error) error {
	logger := logging.FromContext(ctx)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("unable to resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("unable to watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debugf("dataset event %s", ev)
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watcher error: %v", err)
		case <-timer.C:
			if err := onChange(ctx); err != nil {
				logger.Errorf("reload after change of %s failed: %v", path, err)
			}
		}
	}
}
