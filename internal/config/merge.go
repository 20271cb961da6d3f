// SPDX-License-Identifier: MIT

package config

import "github.com/groveworks/siteconf/internal/tree"

// Merge layers input over defaults and returns a new tree; neither argument
// is mutated. Where both sides hold a mapping under the same key the merge
// recurses; in every other case the input value replaces the default
// subtree wholesale — lists and scalars are never merged element-wise.
// Keys present only in defaults are kept, keys present only in the input
// are added verbatim.
func Merge(defaults, input *tree.Value) *tree.Value {
	if defaults.Kind() != tree.KindMap || input.Kind() != tree.KindMap {
		return input.Clone()
	}

	out := defaults.Clone()
	for _, key := range input.Keys() {
		in, _ := input.Get(key)
		if def, ok := out.Get(key); ok && def.Kind() == tree.KindMap && in.Kind() == tree.KindMap {
			out.Set(key, Merge(def, in))
			continue
		}
		out.Set(key, in.Clone())
	}
	return out
}
