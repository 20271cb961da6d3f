// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xlog "github.com/groveworks/siteconf/internal/log"
)

// debounceWindow coalesces editor write bursts into one reload.
const debounceWindow = 200 * time.Millisecond

// Watcher arms one filesystem watch per tracked file and re-invokes the
// loader for the owning domain when the file changes. Arming the same path
// twice replaces the association instead of duplicating the watch. On a
// successful reload a Changed event fires in addition to Loaded; on failure
// only the loader's Error event fires and the store keeps the last known
// good snapshot.
type Watcher struct {
	fs     *fsnotify.Watcher
	loader *Loader
	bus    *Bus
	logger zerolog.Logger

	mu       sync.Mutex
	owners   map[string]string // absolute file path -> domain name
	debounce map[string]*time.Timer

	running atomic.Bool
	done    chan struct{}
}

// NewWatcher creates a watcher over the given loader and bus.
func NewWatcher(loader *Loader, bus *Bus) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		fs:       fs,
		loader:   loader,
		bus:      bus,
		logger:   xlog.WithComponent("config.watcher"),
		owners:   make(map[string]string),
		debounce: make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Watch arms a watch for the domain's backing file. Re-arming a path that
// is already tracked only updates the owning domain.
func (w *Watcher) Watch(domain, path string) error {
	path = filepath.Clean(path)

	w.mu.Lock()
	_, tracked := w.owners[path]
	w.owners[path] = domain
	w.mu.Unlock()

	if tracked {
		return nil
	}
	if err := w.fs.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.logger.Info().
		Str("event", "config.watch_armed").
		Str("domain", domain).
		Str("path", path).
		Msg("watching file for changes")
	return nil
}

// Start launches the notification loop on its own goroutine. It must be
// called at most once; Close then waits for the loop to exit.
func (w *Watcher) Start(ctx context.Context) {
	w.running.Store(true)
	go w.run(ctx)
}

// run processes change notifications until ctx is cancelled or the watcher
// is closed.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("event", "config.watcher_stopped").Msg("watcher stopped")
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	domain, tracked := w.owners[path]
	w.mu.Unlock()
	if !tracked {
		return
	}

	// Write and Create cover in-place edits; Rename and Remove fire when an
	// editor replaces the file atomically, which can drop the inode watch.
	if ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn().
				Err(err).
				Str("event", "config.rearm_failed").
				Str("path", path).
				Msg("could not re-arm watch after replace")
		}
	} else if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}

	w.logger.Debug().
		Str("event", "config.file_changed").
		Str("domain", domain).
		Str("op", ev.Op.String()).
		Msg("backing file changed")

	w.mu.Lock()
	if t, ok := w.debounce[path]; ok {
		t.Stop()
	}
	w.debounce[path] = time.AfterFunc(debounceWindow, func() {
		w.reload(domain, path)
	})
	w.mu.Unlock()
}

func (w *Watcher) reload(domain, path string) {
	if _, err := w.loader.LoadFile(domain, path); err != nil {
		watcherReloads.WithLabelValues(domain, "failure").Inc()
		return
	}
	watcherReloads.WithLabelValues(domain, "success").Inc()
	w.bus.publish(Event{
		Kind:   EventChanged,
		Domain: domain,
		File:   filepath.Base(path),
	})
}

// Close tears down every armed watch and waits for the loop to exit. It
// must be called before process exit so no filesystem handles dangle.
// Closing a watcher that was never started is a no-op beyond releasing the
// filesystem handle; running is set synchronously in Start, so there is no
// window where Close could miss a loop that is about to run.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	if w.running.Load() {
		<-w.done
	}

	w.mu.Lock()
	for _, t := range w.debounce {
		t.Stop()
	}
	w.mu.Unlock()
	return err
}
