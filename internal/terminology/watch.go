package terminology

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"sales-intent-go/internal/logger"
)

// Watch reloads the store whenever the JSON document is changed by someone
// else. It returns once the watcher is set up; the loop ends with ctx.
func Watch(ctx context.Context, store *Store, p *FilePersister) error {
	log := logger.Component("terminology.watch").WithField("path", p.Path())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	// Watch the directory: saves replace the file through a rename.
	if err := watcher.Add(filepath.Dir(p.Path())); err != nil {
		watcher.Close()
		return fmt.Errorf("watch add: %w", err)
	}

	target := filepath.Clean(p.Path())
	go func() {
		defer watcher.Close()
		log.Info("watching dictionary for external edits")
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target || evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if _, err := store.Reload(ctx); err != nil {
					// Partial writes fail to parse; the next event retries.
					log.WithError(err).Debug("dictionary reload skipped")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("watch error")
			}
		}
	}()
	return nil
}
