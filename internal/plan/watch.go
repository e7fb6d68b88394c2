package plan

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the library whenever the template file at path is written.
// A file that fails to parse is logged and the previous templates stay in
// effect. Blocks until ctx is cancelled.
func (l *Library) Watch(ctx context.Context, path string, logger *slog.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("templates: failed to create watcher", "err", err)
		return
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so editors that replace the file are still seen.
	abs, err := filepath.Abs(path)
	if err != nil {
		logger.Error("templates: bad path", "path", path, "err", err)
		return
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		logger.Error("templates: failed to watch", "path", path, "err", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if err := l.Reload(abs); err != nil {
				logger.Warn("templates: reload failed, keeping previous set", "path", path, "err", err)
				continue
			}
			logger.Info("templates reloaded", "path", path, "keys", len(l.Keys()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("templates: watcher error", "err", err)
		}
	}
}
