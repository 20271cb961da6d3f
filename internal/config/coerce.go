// SPDX-License-Identifier: MIT

package config

import (
	"strconv"

	"github.com/groveworks/siteconf/internal/tree"
)

// CoercionAction describes how a schema mismatch was resolved.
type CoercionAction string

const (
	// ActionCoerced means the value was converted to the declared type.
	ActionCoerced CoercionAction = "coerced"
	// ActionFallback means the domain default was substituted at the path.
	ActionFallback CoercionAction = "fallback"
)

// Diagnostic records one coercion or fallback. Diagnostics are operational
// visibility only; they are never surfaced as errors.
type Diagnostic struct {
	Path   string
	Want   FieldType
	Got    tree.Kind
	Action CoercionAction
}

// Coerce walks every schema path of the working tree in sorted path order
// and rewrites leaves whose runtime kind does not match the declared type:
//
//	number  <- string:        parsed as float, fallback on parse failure
//	number  <- bool/list/map: fallback
//	string  <- number/bool:   stringified losslessly
//	string  <- list/map:      fallback
//	boolean <- string/number: truthiness (non-empty / non-zero)
//	boolean <- list/map:      fallback
//	any:                      never touched
//
// A missing path (the input replaced an ancestor mapping with a scalar) is
// treated as a fallback too. Fallback values are cloned from the domain's
// pristine compiled-in defaults at the exact path, never from the working
// tree. Coerce mutates v in place and is total: it never fails.
func Coerce(v *tree.Value, schema Schema, defaults *tree.Value) []Diagnostic {
	var diags []Diagnostic

	for _, path := range schema.paths() {
		want := schema[path]
		if want == TypeAny {
			continue
		}

		leaf, ok := v.Lookup(path)
		if !ok {
			diags = append(diags, fallback(v, defaults, path, want, tree.KindNull))
			continue
		}
		if kindMatches(leaf.Kind(), want) {
			continue
		}

		switch want {
		case TypeNumber:
			if leaf.Kind() == tree.KindString {
				if f, err := strconv.ParseFloat(leaf.StringVal(), 64); err == nil {
					v.SetPath(path, tree.Number(f))
					diags = append(diags, Diagnostic{Path: path, Want: want, Got: leaf.Kind(), Action: ActionCoerced})
					continue
				}
			}
			diags = append(diags, fallback(v, defaults, path, want, leaf.Kind()))

		case TypeString:
			switch leaf.Kind() {
			case tree.KindNumber:
				v.SetPath(path, tree.String(tree.FormatNumber(leaf.NumberVal())))
				diags = append(diags, Diagnostic{Path: path, Want: want, Got: leaf.Kind(), Action: ActionCoerced})
			case tree.KindBool:
				v.SetPath(path, tree.String(strconv.FormatBool(leaf.BoolVal())))
				diags = append(diags, Diagnostic{Path: path, Want: want, Got: leaf.Kind(), Action: ActionCoerced})
			default:
				diags = append(diags, fallback(v, defaults, path, want, leaf.Kind()))
			}

		case TypeBoolean:
			switch leaf.Kind() {
			case tree.KindString:
				v.SetPath(path, tree.Bool(leaf.StringVal() != ""))
				diags = append(diags, Diagnostic{Path: path, Want: want, Got: leaf.Kind(), Action: ActionCoerced})
			case tree.KindNumber:
				v.SetPath(path, tree.Bool(leaf.NumberVal() != 0))
				diags = append(diags, Diagnostic{Path: path, Want: want, Got: leaf.Kind(), Action: ActionCoerced})
			default:
				diags = append(diags, fallback(v, defaults, path, want, leaf.Kind()))
			}
		}
	}

	return diags
}

func fallback(v, defaults *tree.Value, path string, want FieldType, got tree.Kind) Diagnostic {
	// Registry invariant: defaults satisfy every schema path.
	def, ok := defaults.Lookup(path)
	if !ok {
		def = tree.Null()
	}
	v.SetPath(path, def.Clone())
	return Diagnostic{Path: path, Want: want, Got: got, Action: ActionFallback}
}
