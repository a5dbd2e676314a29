package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the config file at path whenever it changes and hands the
// parsed result to apply, until ctx is cancelled. The parent directory is
// watched rather than the file itself because editors typically replace the
// file on save. Unreadable or malformed rewrites are logged and skipped, so
// a half-saved file never clobbers live settings.
//
// The monitoring session uses this to pick up a compensation change made
// mid-show: compensation is applied only at serialization time, so a live
// re-read never touches recorded clips.
func Watch(ctx context.Context, path string, apply func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			cfg, err := LoadFile(path)
			if err != nil || cfg == nil {
				slog.Warn("config changed but could not be re-read", "path", path, "err", err)
				continue
			}
			slog.Info("config re-read", "path", path)
			apply(Merge(cfg, nil))

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; keep watching.
		}
	}
}
