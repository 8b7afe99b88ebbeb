package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file whenever it changes on disk.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewWatcher starts watching the directory holding path. Watching the
// directory rather than the file survives editors that replace the file
// on save.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, watcher: watcher, logger: logger}, nil
}

// Run calls fn with every successfully reloaded configuration until ctx
// is done. Invalid files are logged and skipped, leaving the caller on
// the last good configuration.
func (w *Watcher) Run(ctx context.Context, fn func(*Config)) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config reload failed",
					slog.String("path", w.path),
					slog.String("error", err.Error()))
				continue
			}
			w.logger.Info("config reloaded", slog.String("path", w.path))
			fn(cfg)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", slog.String("error", err.Error()))

		case <-ctx.Done():
			return
		}
	}
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
