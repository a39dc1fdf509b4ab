package docs

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher on the docs directory and clears the
// cache whenever a guideline document changes on disk, until ctx is
// cancelled. Events are debounced so an editor save (write + chmod + rename)
// triggers a single invalidation.
func Watch(ctx context.Context, cache *Cache, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(cache.root); err != nil {
		return err
	}

	logger.Info("docs watcher: started", slog.String("root", cache.root))

	var clearTimer *time.Timer
	var clearCh <-chan time.Time

	scheduleClear := func() {
		if clearTimer == nil {
			clearTimer = time.NewTimer(200 * time.Millisecond)
			clearCh = clearTimer.C
		} else {
			clearTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if clearTimer != nil {
				clearTimer.Stop()
			}
			logger.Info("docs watcher: stopped")
			return nil

		case <-clearCh:
			cache.ClearCache()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("docs watcher: change detected",
					slog.String("path", ev.Name),
					slog.String("op", ev.Op.String()))
				scheduleClear()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("docs watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
