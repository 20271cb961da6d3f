// SPDX-License-Identifier: MIT

// Package config implements the configuration core: domain registration,
// default-merging, type coercion, the atomic snapshot store, file loading,
// hot reload and template bootstrapping.
package config

import (
	"fmt"
	"sort"

	"github.com/groveworks/siteconf/internal/tree"
)

// FieldType is the declared leaf type for a schema path.
type FieldType int

const (
	TypeAny FieldType = iota
	TypeNumber
	TypeString
	TypeBoolean
)

func (t FieldType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	default:
		return "any"
	}
}

// Schema maps dot-separated leaf paths to their expected types.
type Schema map[string]FieldType

// paths returns the schema paths in sorted order. Coercion walks paths in
// this fixed order so that fallback outcomes are deterministic.
func (s Schema) paths() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Domain describes one configuration section: its name, a fully populated
// default tree and the expected leaf types. Domains are registered once at
// Manager construction and are immutable afterwards. Defaults must satisfy
// every schema path; Validate exists to catch that defect in tests.
type Domain struct {
	Name     string
	Defaults *tree.Value
	Schema   Schema
}

// FileName returns the fixed backing file name for the domain.
func (d Domain) FileName() string {
	return d.Name + ".yaml"
}

// Validate checks that the default tree satisfies every declared schema
// path with a matching runtime kind.
func (d Domain) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("domain without a name")
	}
	if d.Defaults.Kind() != tree.KindMap {
		return fmt.Errorf("domain %q: defaults must be a mapping, got %s", d.Name, d.Defaults.Kind())
	}
	for _, path := range d.Schema.paths() {
		leaf, ok := d.Defaults.Lookup(path)
		if !ok {
			return fmt.Errorf("domain %q: default missing for schema path %q", d.Name, path)
		}
		if !kindMatches(leaf.Kind(), d.Schema[path]) {
			return fmt.Errorf("domain %q: default at %q is %s, schema declares %s",
				d.Name, path, leaf.Kind(), d.Schema[path])
		}
	}
	return nil
}

func kindMatches(k tree.Kind, t FieldType) bool {
	switch t {
	case TypeNumber:
		return k == tree.KindNumber
	case TypeString:
		return k == tree.KindString
	case TypeBoolean:
		return k == tree.KindBool
	default:
		return true
	}
}
