// SPDX-License-Identifier: MIT

package config

import (
	"sync/atomic"

	"github.com/groveworks/siteconf/internal/tree"
)

// Store holds the current snapshot per domain. Replacement is a single
// atomic pointer swap, so readers always observe a complete tree and never
// a mix of old and new leaves. Trees handed to Set must not be mutated
// afterwards.
type Store struct {
	names    []string
	snaps    map[string]*atomic.Pointer[tree.Value]
	defaults map[string]*tree.Value
}

// NewStore creates a store for the given domains. Until a domain's first
// successful load its compiled-in default answers Get.
func NewStore(domains []Domain) *Store {
	s := &Store{
		snaps:    make(map[string]*atomic.Pointer[tree.Value], len(domains)),
		defaults: make(map[string]*tree.Value, len(domains)),
	}
	for _, d := range domains {
		s.names = append(s.names, d.Name)
		s.snaps[d.Name] = &atomic.Pointer[tree.Value]{}
		s.defaults[d.Name] = d.Defaults.Clone()
	}
	return s
}

// Get returns the current snapshot for name. It never returns nil: a domain
// that has not loaded yet yields its compiled-in default, an unknown name
// yields an empty mapping.
func (s *Store) Get(name string) *tree.Value {
	ptr, ok := s.snaps[name]
	if !ok {
		return tree.Map()
	}
	if v := ptr.Load(); v != nil {
		return v
	}
	return s.defaults[name]
}

// All returns a snapshot over every registered domain at a single instant.
// Copying current references is sufficient; per-domain replacement is
// already atomic, so no locking is involved.
func (s *Store) All() map[string]*tree.Value {
	out := make(map[string]*tree.Value, len(s.names))
	for _, name := range s.names {
		out[name] = s.Get(name)
	}
	return out
}

// Set atomically replaces the snapshot for name. Unknown names are ignored.
func (s *Store) Set(name string, v *tree.Value) {
	if ptr, ok := s.snaps[name]; ok {
		ptr.Store(v)
	}
}

// Loaded reports whether the domain has ever had a snapshot installed.
func (s *Store) Loaded(name string) bool {
	ptr, ok := s.snaps[name]
	return ok && ptr.Load() != nil
}
