// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	xlog "github.com/groveworks/siteconf/internal/log"
	"github.com/groveworks/siteconf/internal/tree"
)

// Loader turns raw file bytes into installed snapshots: parse, merge over
// the domain defaults, coerce per schema, atomic store swap, then events.
//
// Failure discipline: a read or parse failure never surfaces to readers.
// If the domain has a prior snapshot it is kept (last-known-good); if not,
// the compiled-in default is installed and the Error event carries
// UsingDefault=true. Events fire strictly after the swap.
type Loader struct {
	store   *Store
	bus     *Bus
	domains map[string]Domain
	logger  zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLoader creates a loader over the given registry, store and bus.
func NewLoader(domains []Domain, store *Store, bus *Bus) *Loader {
	reg := make(map[string]Domain, len(domains))
	for _, d := range domains {
		reg[d.Name] = d
	}
	return &Loader{
		store:   store,
		bus:     bus,
		domains: reg,
		logger:  xlog.WithComponent("config.loader"),
		locks:   make(map[string]*sync.Mutex, len(domains)),
	}
}

// domainLock serializes load->swap for one domain. Different domains load
// independently; their store slots are disjoint.
func (l *Loader) domainLock(name string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[name]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[name] = lk
	}
	return lk
}

// LoadFile reads the domain's backing file and loads it. An unreadable file
// follows the same fallback path as malformed content.
func (l *Loader) LoadFile(name, path string) (*tree.Value, error) {
	dom, ok := l.domains[name]
	if !ok {
		return tree.Map(), fmt.Errorf("%w: %s", ErrUnknownDomain, name)
	}

	// #nosec G304 -- backing file paths are derived from the operator-chosen config dir
	raw, err := os.ReadFile(path)
	if err != nil {
		rerr := fmt.Errorf("%w: %v", ErrRead, err)
		lk := l.domainLock(name)
		lk.Lock()
		defer lk.Unlock()
		return l.fail(dom, rerr), rerr
	}
	return l.Load(name, raw)
}

// Load processes raw bytes for the named domain and installs the result.
// The returned tree is whatever is current after the call: the fresh
// snapshot on success, the retained or default tree on failure.
func (l *Loader) Load(name string, raw []byte) (*tree.Value, error) {
	dom, ok := l.domains[name]
	if !ok {
		return tree.Map(), fmt.Errorf("%w: %s", ErrUnknownDomain, name)
	}

	lk := l.domainLock(name)
	lk.Lock()
	defer lk.Unlock()

	parsed, err := tree.Decode(raw)
	if err != nil {
		perr := fmt.Errorf("%w: %v", ErrParse, err)
		return l.fail(dom, perr), perr
	}

	merged := Merge(dom.Defaults, parsed)
	if merged.Kind() != tree.KindMap {
		// A scalar or list document replaces the whole tree during the
		// merge; nothing usable remains, so restore the defaults wholesale
		// and let coercion verify them.
		l.logger.Warn().
			Str("event", "config.non_mapping_root").
			Str("domain", dom.Name).
			Str("kind", merged.Kind().String()).
			Msg("document root is not a mapping, using defaults")
		merged = dom.Defaults.Clone()
	}
	diags := Coerce(merged, dom.Schema, dom.Defaults)
	for _, d := range diags {
		l.logger.Debug().
			Str("event", "config.coercion").
			Str("domain", dom.Name).
			Str("path", d.Path).
			Str("want", d.Want.String()).
			Str("got", d.Got.String()).
			Str("action", string(d.Action)).
			Msg("schema mismatch resolved")
		if d.Action == ActionFallback {
			coercionFallbacks.WithLabelValues(dom.Name).Inc()
		}
	}

	l.store.Set(dom.Name, merged)
	loadsTotal.WithLabelValues(dom.Name, "success").Inc()
	l.logger.Info().
		Str("event", "config.loaded").
		Str("domain", dom.Name).
		Int("coercions", len(diags)).
		Msg("configuration loaded")

	l.bus.publish(Event{Kind: EventLoaded, Domain: dom.Name})
	return merged, nil
}

// fail applies the fallback policy for a failed load and publishes the
// Error event. Must be called with the domain lock held.
func (l *Loader) fail(dom Domain, cause error) *tree.Value {
	usingDefault := false
	if !l.store.Loaded(dom.Name) {
		l.store.Set(dom.Name, dom.Defaults.Clone())
		usingDefault = true
		loadsTotal.WithLabelValues(dom.Name, "fallback").Inc()
	} else {
		loadsTotal.WithLabelValues(dom.Name, "retained").Inc()
	}

	l.logger.Error().
		Err(cause).
		Str("event", "config.load_failed").
		Str("domain", dom.Name).
		Bool("using_default", usingDefault).
		Msg("load failed, serving best available snapshot")

	l.bus.publish(Event{
		Kind:         EventError,
		Domain:       dom.Name,
		Err:          cause,
		UsingDefault: usingDefault,
	})
	return l.store.Get(dom.Name)
}
