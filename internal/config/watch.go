package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce coalesces editor save bursts (truncate, write, rename) into a
// single reload.
var WatchDebounce = 200 * time.Millisecond

// Watch reloads path whenever it changes on disk and hands the result to fn.
// The parent directory is watched so that atomic-rename saves and a config
// file created after startup are both seen. fn receives either a valid config
// or the load error; it runs on the watcher goroutine. Watch blocks until ctx
// is done.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(WatchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(WatchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fn(nil, fmt.Errorf("config watcher: %w", err))
		case <-timer.C:
			res, err := LoadFromPath(target)
			if err != nil {
				fn(nil, err)
				continue
			}
			fn(res.Config, nil)
		}
	}
}
