package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOption configures Watch.
type WatchOption func(*watcher)

type watcher struct {
	debounce time.Duration
	opts     []Option
}

// WithDebounce sets how long Watch waits after the last change before
// reloading. Default: 100ms.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *watcher) {
		w.debounce = d
	}
}

// WithLoadOptions sets the options applied on every reload.
func WithLoadOptions(opts ...Option) WatchOption {
	return func(w *watcher) {
		w.opts = opts
	}
}

// Watch reloads the configuration file at path whenever it changes and
// passes the result to fn. Invalid configurations are reported through
// the error argument; the caller decides whether to keep the previous
// one. Watch blocks until ctx is canceled.
//
// The parent directory is watched rather than the file, so editors that
// replace the file by rename are handled.
func Watch(ctx context.Context, path string, fn func(*Config, error), opts ...WatchOption) error {
	w := &watcher{debounce: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(w)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer fsw.Close()

	path = filepath.Clean(path)
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			fn(nil, fmt.Errorf("config: watch %s: %w", path, err))
		case <-timer.C:
			fn(Load(path, w.opts...))
		}
	}
}
