// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	xlog "github.com/groveworks/siteconf/internal/log"
	"github.com/groveworks/siteconf/internal/tree"
)

// Manager owns the configuration core for one directory of backing files.
// It is constructed from an explicit, immutable list of domain descriptors;
// there is no package-level registry. Reads are lock-free and never block.
type Manager struct {
	dir     string
	domains []Domain
	store   *Store
	bus     *Bus
	loader  *Loader
	watcher *Watcher
	logger  zerolog.Logger
}

// NewManager creates a manager for the given domains, backed by files under
// dir. Domains are registered once; duplicate names are rejected.
func NewManager(dir string, domains []Domain) (*Manager, error) {
	seen := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("duplicate domain %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}

	store := NewStore(domains)
	bus := NewBus()
	return &Manager{
		dir:     dir,
		domains: append([]Domain(nil), domains...),
		store:   store,
		bus:     bus,
		loader:  NewLoader(domains, store, bus),
		logger:  xlog.WithComponent("config.manager"),
	}, nil
}

// Start bootstraps missing template files, performs the initial load for
// every domain and arms the file watcher. A bootstrap write failure aborts
// startup for that domain only; the error is reported and the compiled-in
// default keeps answering reads. Start returns the joined per-domain
// errors, if any — the manager is usable either way.
func (m *Manager) Start(ctx context.Context) error {
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	watcher, err := NewWatcher(m.loader, m.bus)
	if err != nil {
		return err
	}
	m.watcher = watcher

	var errs []error
	for _, d := range m.domains {
		path := filepath.Join(m.dir, d.FileName())

		created, err := Bootstrap(d, path)
		if err != nil {
			m.logger.Error().
				Err(err).
				Str("event", "config.bootstrap_failed").
				Str("domain", d.Name).
				Msg("cannot write template, domain serves compiled-in default only")
			m.bus.publish(Event{Kind: EventError, Domain: d.Name, Err: err, UsingDefault: true})
			errs = append(errs, err)
			continue
		}
		if created {
			m.logger.Info().
				Str("event", "config.template_written").
				Str("domain", d.Name).
				Str("path", path).
				Msg("wrote default template")
		}

		// Initial load. Failures fall back inside the loader and are
		// observable on the event stream; they do not abort startup.
		_, _ = m.loader.LoadFile(d.Name, path)

		if err := m.watcher.Watch(d.Name, path); err != nil {
			errs = append(errs, err)
		}
	}

	m.watcher.Start(ctx)
	return errors.Join(errs...)
}

// Get returns the current snapshot for name. It never returns nil; see
// Store.Get for the fallback rules.
func (m *Manager) Get(name string) *tree.Value {
	return m.store.Get(name)
}

// All returns a point-in-time snapshot over every registered domain.
func (m *Manager) All() map[string]*tree.Value {
	return m.store.All()
}

// Load feeds raw bytes through the pipeline for the named domain. It backs
// manual reloads; the watcher drives the same path on file changes.
func (m *Manager) Load(name string, raw []byte) (*tree.Value, error) {
	return m.loader.Load(name, raw)
}

// Subscribe registers a handler for one event kind.
func (m *Manager) Subscribe(kind EventKind, h Handler) {
	m.bus.Subscribe(kind, h)
}

// Close tears down every armed watch. Required before process exit.
func (m *Manager) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}
