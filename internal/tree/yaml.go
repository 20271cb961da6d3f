// SPDX-License-Identifier: MIT

package tree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode parses one YAML document into a Value. An empty document decodes to
// an empty map so that a blank config file behaves like `{}`. Multiple
// documents or trailing content are rejected, matching the strict single
// document policy for config files.
func Decode(data []byte) (*Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Map(), nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode yaml: multiple documents or trailing content")
	}

	root := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return Map(), nil
		}
		root = doc.Content[0]
	}
	return fromNode(root)
}

func fromNode(n *yaml.Node) (*Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.ScalarNode:
		return fromScalar(n)
	case yaml.SequenceNode:
		items := make([]*Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return List(items...), nil
	case yaml.MappingNode:
		out := Map()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: non-scalar mapping key", key.Line)
			}
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			// Duplicate keys: last occurrence wins.
			out.Set(key.Value, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func fromScalar(n *yaml.Node) (*Value, error) {
	switch n.Tag {
	case "!!null":
		return Null(), nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			// yaml also resolves y/yes/on variants to !!bool
			b = n.Value == "y" || n.Value == "Y" || n.Value == "yes" ||
				n.Value == "Yes" || n.Value == "YES" || n.Value == "on" ||
				n.Value == "On" || n.Value == "ON"
		}
		return Bool(b), nil
	case "!!int", "!!float":
		// base 0 covers hex and octal int forms
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return Number(float64(i)), nil
		}
		if f, ok := nonFiniteFloat(n.Value); ok {
			return Number(f), nil
		}
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse number %q: %w", n.Line, n.Value, err)
		}
		return Number(f), nil
	default:
		return String(n.Value), nil
	}
}

// nonFiniteFloat maps the YAML spellings of infinity and not-a-number,
// which strconv does not accept.
func nonFiniteFloat(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case ".inf", "+.inf":
		return math.Inf(1), true
	case "-.inf":
		return math.Inf(-1), true
	case ".nan":
		return math.NaN(), true
	}
	return 0, false
}

// Encode serializes a Value as YAML with two-space indentation. Map keys
// keep their insertion order.
func Encode(v *Value) ([]byte, error) {
	node, err := toNode(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func toNode(v *Value) (*yaml.Node, error) {
	switch v.Kind() {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.BoolVal())}, nil
	case KindNumber:
		tag := "!!int"
		if v.NumberVal() != float64(int64(v.NumberVal())) {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: FormatNumber(v.NumberVal())}, nil
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.StringVal()}, nil
	case KindList:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range v.Items() {
			c, err := toNode(it)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, c)
		}
		return node, nil
	case KindMap:
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			c, err := toNode(child)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, c)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("encode yaml: unsupported kind %v", v.Kind())
	}
}
