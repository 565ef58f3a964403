// Package watch triggers repository refreshes when rule source
// directories change on disk.
package watch

import (
	"context"
	"fmt"
	"time"

	"ruleshub/internal/logging"
	"ruleshub/internal/repository"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce batches bursts of filesystem events (editors often
// write, rename and chmod in quick succession) into one refresh.
const defaultDebounce = 500 * time.Millisecond

// Watcher refreshes the repository when files under its source
// directories change.
type Watcher struct {
	repo     *repository.Repository
	logger   *logging.AppLogger
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// New creates a watcher over the repository's registered source
// directories. A debounce of 0 selects the default.
func New(repo *repository.Repository, logger *logging.AppLogger, debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		repo:     repo,
		logger:   logger,
		debounce: debounce,
		fs:       fs,
	}, nil
}

// Run watches until the context is cancelled. Each burst of relevant
// events triggers a single repository refresh after the debounce
// interval passes without further changes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	dirs := w.repo.SourceDirs()
	if len(dirs) == 0 {
		w.logger.Warn("No source directories to watch, watcher is idle")
	}
	for _, dir := range dirs {
		if err := w.fs.Add(dir); err != nil {
			w.logger.Warn("Cannot watch directory", "dir", dir, "error", err)
			continue
		}
		w.logger.Info("Watching rule directory", "dir", dir)
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("Source change detected", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			if err := w.repo.Refresh(); err != nil {
				w.logger.Error("Refresh after source change failed", "error", err)
				continue
			}
			w.logger.Info("Rules refreshed after source change", "rules", w.repo.Len())

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Filesystem watcher error", "error", err)
		}
	}
}

// relevant filters out events that cannot change rule content, chmod
// in particular.
func relevant(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
