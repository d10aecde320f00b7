// Package watcher reports changes to a single file. It watches the parent
// directory because atomic writes replace the file (rename over target),
// which drops watches placed on the file itself.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

type Watcher struct {
	targetPath string
	parentPath string
	onChange   func()
	debounce   time.Duration
	logger     zerolog.Logger
}

// New creates a Watcher calling onChange after writes to targetPath settle.
func New(targetPath string, onChange func(), logger zerolog.Logger) *Watcher {
	return &Watcher{
		targetPath: filepath.Clean(targetPath),
		parentPath: filepath.Dir(filepath.Clean(targetPath)),
		onChange:   onChange,
		debounce:   100 * time.Millisecond,
		logger:     logger.With().Str("component", "watcher").Str("path", targetPath).Logger(),
	}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.parentPath, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.parentPath); err != nil {
		return fmt.Errorf("watch %s: %w", w.parentPath, err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.targetPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.fire)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) fire() {
	w.logger.Debug().Msg("target changed")
	if w.onChange != nil {
		w.onChange()
	}
}
