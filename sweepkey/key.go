// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sweepkey extracts and manipulates the composite keys that
// tie a parametric sweep's output files back to the sweep point that
// produced them.
//
// A sweep is declared by a Schema: an ordered list of typed fields,
// one per sweep dimension, plus the separator used to pack field
// values into file names. A Key is an ordered tuple of values for
// the first d schema fields; d is the Key's arity, or depth. Files
// produced once per fine-grained parameter combination carry
// full-arity keys, while files produced at a coarser point of the
// sweep hierarchy carry prefix keys of lower arity.
//
// Keys are interned by their Schema, so they are immutable, cheap to
// copy, and comparable with ==; this makes them usable directly as
// map keys when grouping and joining streams of files.
package sweepkey

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Key is an immutable, ordered tuple of field values identifying
// one point, or one coarser prefix region, of a sweep grid.
//
// The zero Key has arity 0 and belongs to no schema. Keys from the
// same Schema can be compared with ==: two are equal exactly when
// they have the same arity and the same values in the same order.
type Key struct {
	k *keyNode
}

type keyNode struct {
	schema *Schema
	vals   []string
}

func (n *keyNode) equalVals(vals []string) bool {
	if len(n.vals) != len(vals) {
		return false
	}
	for i, v := range n.vals {
		if v != vals[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool { return k.k == nil }

// Schema returns the Schema that created k, or nil for the zero Key.
func (k Key) Schema() *Schema {
	if k.k == nil {
		return nil
	}
	return k.k.schema
}

// Arity returns the number of field values in k.
func (k Key) Arity() int {
	if k.k == nil {
		return 0
	}
	return len(k.k.vals)
}

// Get returns the value of the i'th schema field in k.
func (k Key) Get(i int) string {
	return k.k.vals[i]
}

// Value returns the value of the named field and whether k covers
// that field.
func (k Key) Value(name string) (string, bool) {
	if k.k == nil {
		return "", false
	}
	for i, f := range k.k.schema.fields[:len(k.k.vals)] {
		if f.Name == name {
			return k.k.vals[i], true
		}
	}
	return "", false
}

// Prefix returns the Key consisting of k's first depth values. It
// panics if depth is not between 1 and k's arity. The result is
// interned like any other Key of its schema.
func (k Key) Prefix(depth int) Key {
	if depth < 1 || depth > len(k.k.vals) {
		panic("sweepkey: prefix depth " + strconv.Itoa(depth) + " out of range for key of arity " + strconv.Itoa(len(k.k.vals)))
	}
	if depth == len(k.k.vals) {
		return k
	}
	return k.k.schema.intern(k.k.vals[:depth])
}

// HasPrefix reports whether p's values are the leading values of k.
func (k Key) HasPrefix(p Key) bool {
	if k.k == nil || p.k == nil || p.Arity() > k.Arity() {
		return false
	}
	return k.Prefix(p.Arity()) == p
}

// String returns a human-readable "name:value name:value ..." form.
func (k Key) String() string {
	if k.k == nil {
		return "<zero>"
	}
	var sb strings.Builder
	for i, v := range k.k.vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k.k.schema.fields[i].Name)
		sb.WriteByte(':')
		sb.WriteString(v)
	}
	return sb.String()
}

// Name returns k's values joined by the schema separator, the form
// keys take inside file names.
func (k Key) Name() string {
	if k.k == nil {
		return ""
	}
	return strings.Join(k.k.vals, k.k.schema.sep)
}

// Params returns k as ordered (name, value) pairs.
func (k Key) Params() Params {
	if k.k == nil {
		return nil
	}
	ps := make(Params, len(k.k.vals))
	for i, v := range k.k.vals {
		ps[i] = Param{k.k.schema.fields[i].Name, v}
	}
	return ps
}

// A Param is one named field value of a Key.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered list of named field values. It marshals to a
// YAML mapping that preserves field order, and unmarshals from any
// YAML mapping of scalars, preserving document order and the literal
// scalar text.
type Params []Param

// Get returns the value of the named parameter and whether it is
// present.
func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Values returns the parameter values in order.
func (ps Params) Values() []string {
	vals := make([]string, len(ps))
	for i, p := range ps {
		vals[i] = p.Value
	}
	return vals
}

// String returns the same "name:value name:value ..." form as
// Key.String.
func (ps Params) String() string {
	var sb strings.Builder
	for i, p := range ps {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.Name)
		sb.WriteByte(':')
		sb.WriteString(p.Value)
	}
	return sb.String()
}

// MarshalYAML implements yaml.Marshaler. Values are emitted as plain
// scalars, so numeric tokens render as YAML numbers.
func (ps Params) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range ps {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Value},
		)
	}
	return node, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ps *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &yaml.TypeError{Errors: []string{"line " + strconv.Itoa(node.Line) + ": parameters must be a mapping"}}
	}
	out := make(Params, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, Param{node.Content[i].Value, node.Content[i+1].Value})
	}
	*ps = out
	return nil
}
