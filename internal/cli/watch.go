package cli

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the file must stay quiet before a rebuild, so that
// editors writing in several steps trigger one compilation.
const settle = 100 * time.Millisecond

// Watch runs fn once, then again every time the file at path changes, until
// ctx is done. Errors from fn are logged and do not stop the loop; a change
// that leaves the content identical is ignored.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file by renaming over it.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	last := digest(abs)
	run := func() {
		if err := fn(); err != nil {
			logger.Error("Build failed", "path", path, "err", err)
		}
	}
	run()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		case <-fire:
			fire = nil
			sum := digest(abs)
			if sum == last {
				continue
			}
			last = sum
			logger.Info("Change detected, rebuilding", "path", path)
			run()
		}
	}
}

func digest(path string) [md5.Size]byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return [md5.Size]byte{}
	}
	return md5.Sum(data)
}
