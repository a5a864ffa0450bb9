// Package watcher reloads the configuration file when it changes on disk.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"wifiutils/internal/config"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a config file and hands every successfully parsed
// revision to onReload
type Watcher struct {
	path     string
	onReload func(*config.Config)
	debounce time.Duration

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a config watcher
func New(path string, onReload func(*config.Config)) *Watcher {
	return &Watcher{
		path:     path,
		onReload: onReload,
		debounce: 500 * time.Millisecond,
		ready:    make(chan struct{}),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Ready is closed once the watch is in place
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Watch blocks until ctx is cancelled or the watch cannot be set up.
// A revision that fails to parse is logged and the previous config stays in
// effect.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory so editors that replace the file are still seen
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}
	w.readyOnce.Do(func() { close(w.ready) })

	log.Printf("Watcher: watching %s for changes", w.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) reload() {
	cfg, _, err := config.LoadFromPath(w.path)
	if err != nil {
		log.Printf("Watcher: keeping previous config: %v", err)
		return
	}
	log.Printf("Watcher: reloaded %s", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
