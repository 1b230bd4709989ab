package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/debtscan/internal/logger"
)

// Watch reports every change of the current version to onChange until ctx
// is done. Setup happens before Watch returns; events are delivered from a
// background goroutine, one at a time.
func (s *Store) Watch(ctx context.Context, onChange func(version string)) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	last, _ := s.Current(ctx)
	logger.Debug("Watching %s for new snapshots", s.dir)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != CurrentFile || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
					continue
				}
				version, err := s.Current(ctx)
				if err != nil || version == last {
					continue
				}
				last = version
				logger.Info("Snapshot changed to %s", version)
				onChange(version)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("index watcher: %v", err)
			}
		}
	}()

	return nil
}
