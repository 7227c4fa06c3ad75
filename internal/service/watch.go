package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"recommender/internal/vectorstore"
)

// DefaultReloadDebounce batches the events of one snapshot write.
const DefaultReloadDebounce = 500 * time.Millisecond

// WatchSnapshot reloads h whenever the snapshot info record in its
// directory is rewritten. It blocks until ctx is done. Failed reloads are
// logged and the previous index keeps serving.
func WatchSnapshot(ctx context.Context, h *Holder, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(h.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", h.Dir(), err)
	}
	h.logger.Info("watching index snapshot", "dir", h.Dir())

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isInfoUpdate(event) {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Warn("snapshot watch error", "error", err)
		case <-timer.C:
			pending = false
			if err := h.Reload(); err != nil {
				h.logger.Error("snapshot reload failed, keeping previous index", "error", err)
			}
		}
	}
}

func isInfoUpdate(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != vectorstore.InfoFile {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}
