// SPDX-License-Identifier: MIT

// Package tree implements the recursive value type that configuration
// domains are parsed into, merged over and served from. A Value is one of
// Null, Bool, Number, String, List or Map; numbers are normalized to
// float64 so schema checks deal with a single numeric kind.
package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the runtime shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String returns the lowercase kind name used in logs and diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable-by-convention configuration tree node. Values
// installed into the store must never be mutated afterwards; all transforms
// operate on clones.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	list   []*Value
	keys   []string
	fields map[string]*Value
}

// Null returns the null value.
func Null() *Value { return &Value{kind: KindNull} }

// Bool returns a boolean leaf.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Number returns a numeric leaf.
func Number(n float64) *Value { return &Value{kind: KindNumber, n: n} }

// String returns a string leaf.
func String(s string) *Value { return &Value{kind: KindString, s: s} }

// List returns a list node over the given items.
func List(items ...*Value) *Value {
	return &Value{kind: KindList, list: items}
}

// Map returns an empty map node.
func Map() *Value {
	return &Value{kind: KindMap, fields: make(map[string]*Value)}
}

// Kind reports the node's runtime kind.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// BoolVal returns the boolean payload. Valid only for KindBool.
func (v *Value) BoolVal() bool { return v.b }

// NumberVal returns the numeric payload. Valid only for KindNumber.
func (v *Value) NumberVal() float64 { return v.n }

// StringVal returns the string payload. Valid only for KindString.
func (v *Value) StringVal() string { return v.s }

// Len returns the item count for lists and the key count for maps.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.keys)
	default:
		return 0
	}
}

// Index returns the i-th list item, or nil when out of range.
func (v *Value) Index(i int) *Value {
	if v.Kind() != KindList || i < 0 || i >= len(v.list) {
		return nil
	}
	return v.list[i]
}

// Items returns the backing list slice. Callers must not modify it.
func (v *Value) Items() []*Value {
	if v.Kind() != KindList {
		return nil
	}
	return v.list
}

// Keys returns the map keys in insertion order.
func (v *Value) Keys() []string {
	if v.Kind() != KindMap {
		return nil
	}
	return v.keys
}

// Get returns the map entry for key.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != KindMap {
		return nil, false
	}
	child, ok := v.fields[key]
	return child, ok
}

// Set inserts or replaces a map entry, preserving first-insertion order.
func (v *Value) Set(key string, child *Value) {
	if v.Kind() != KindMap {
		return
	}
	if _, exists := v.fields[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = child
}

// Lookup resolves a dot-separated path to a descendant node.
func (v *Value) Lookup(path string) (*Value, bool) {
	cur := v
	for _, part := range strings.Split(path, ".") {
		child, ok := cur.Get(part)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// SetPath installs a node at a dot-separated path, materializing
// intermediate maps. A non-map intermediate is replaced by a fresh map so
// the operation always succeeds; the configuration engine relies on this
// totality when restoring schema paths that an input overwrote wholesale.
func (v *Value) SetPath(path string, child *Value) {
	parts := strings.Split(path, ".")
	cur := v
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur.Get(part)
		if !ok || next.Kind() != KindMap {
			next = Map()
			cur.Set(part, next)
		}
		cur = next
	}
	cur.Set(parts[len(parts)-1], child)
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	if v == nil {
		return Null()
	}
	switch v.kind {
	case KindList:
		items := make([]*Value, len(v.list))
		for i, it := range v.list {
			items[i] = it.Clone()
		}
		return &Value{kind: KindList, list: items}
	case KindMap:
		out := Map()
		for _, k := range v.keys {
			out.Set(k, v.fields[k].Clone())
		}
		return out
	default:
		c := *v
		return &c
	}
}

// Equal reports structural equality. Map key order is ignored.
func (v *Value) Equal(o *Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for k, child := range v.fields {
			other, ok := o.fields[k]
			if !ok || !child.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// FromGo builds a Value from plain Go data (nil, bool, int, int64, float64,
// string, []any, map[string]any). Map keys are emitted in sorted order so
// trees built from literals serialize deterministically. Unsupported types
// panic; FromGo is meant for compiled-in defaults, not runtime input.
func FromGo(data any) *Value {
	switch t := data.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case float64:
		return Number(t)
	case string:
		return String(t)
	case []any:
		items := make([]*Value, len(t))
		for i, it := range t {
			items[i] = FromGo(it)
		}
		return List(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := Map()
		for _, k := range keys {
			out.Set(k, FromGo(t[k]))
		}
		return out
	default:
		panic(fmt.Sprintf("tree: unsupported literal type %T", data))
	}
}

// ToGo converts a Value back to plain Go data, suitable for JSON encoding.
func (v *Value) ToGo() any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, it := range v.list {
			out[i] = it.ToGo()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.fields))
		for _, k := range v.keys {
			out[k] = v.fields[k].ToGo()
		}
		return out
	}
	return nil
}

// FormatNumber renders a float the way it is written back to config files:
// integral values without a fractional part, everything else in the
// shortest round-trippable form.
func FormatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
