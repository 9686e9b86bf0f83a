// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepkey

import (
	"fmt"
	"hash/maphash"
	"path/filepath"
	"strconv"
	"strings"
)

// A Kind is the value type of a schema field. It determines how a
// field's tokens are validated and ordered. Identity is always the
// literal token: "0.01" and "0.010" are different values of a Float
// field even though they parse to the same number.
type Kind int

const (
	String Kind = iota
	Int
	Float
)

var kindNames = [...]string{
	String: "string",
	Int:    "int",
	Float:  "float",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if s == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown field type %q", s)
}

// A Field is one dimension of a sweep: a parameter name and the kind
// of values it takes.
type Field struct {
	Name string
	Kind Kind
}

// A Schema declares the ordered, typed dimensions of a sweep and the
// separator used to pack their values into file names. All Keys are
// created through a Schema, which interns them so Keys can be
// compared with ==.
//
// A Schema must not be copied and is not safe for concurrent use
// while Keys are being created.
type Schema struct {
	sep    string
	fields []Field

	seed maphash.Seed
	keys map[uint64][]*keyNode
}

// NewSchema returns a Schema over the given fields, in order, with
// sep separating field values in file names.
func NewSchema(sep string, fields []Field) (*Schema, error) {
	if sep == "" {
		return nil, fmt.Errorf("schema separator must be non-empty")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema must have at least one field")
	}
	seen := make(map[string]bool)
	for _, f := range fields {
		switch {
		case f.Name == "":
			return nil, fmt.Errorf("schema field has empty name")
		case strings.Contains(f.Name, sep):
			return nil, fmt.Errorf("schema field %q contains separator %q", f.Name, sep)
		case seen[f.Name]:
			return nil, fmt.Errorf("schema field %q declared twice", f.Name)
		}
		seen[f.Name] = true
	}
	return &Schema{
		sep:    sep,
		fields: append([]Field(nil), fields...),
		seed:   maphash.MakeSeed(),
		keys:   make(map[uint64][]*keyNode),
	}, nil
}

// Arity returns the number of fields in the schema, which is the
// arity of a full sweep-point Key.
func (s *Schema) Arity() int { return len(s.fields) }

// Fields returns the schema's fields in declaration order.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Sep returns the schema's value separator.
func (s *Schema) Sep() string { return s.sep }

// Key constructs the Key with the given field values. The Key's
// arity is len(values), which must be between 1 and the schema's
// arity; values[i] must be a valid token for the schema's i'th
// field.
func (s *Schema) Key(values ...string) (Key, error) {
	if len(values) == 0 {
		return Key{}, fmt.Errorf("key must have at least one value")
	}
	if len(values) > len(s.fields) {
		return Key{}, fmt.Errorf("key has %d values, schema has %d fields", len(values), len(s.fields))
	}
	for i, v := range values {
		if err := s.checkToken(i, v); err != nil {
			return Key{}, err
		}
	}
	return s.intern(values), nil
}

func (s *Schema) checkToken(i int, v string) error {
	f := s.fields[i]
	if v == "" {
		return fmt.Errorf("field %s: empty value", f.Name)
	}
	switch f.Kind {
	case Int:
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("field %s: %q is not an int", f.Name, v)
		}
	case Float:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("field %s: %q is not a float", f.Name, v)
		}
	}
	return nil
}

// A ParseError is an error extracting a Key from a file name. It
// reports the offending path and what went wrong.
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// ParseKey extracts the Key embedded in path's base name. The name
// must consist of separator-delimited field values followed by
// suffix; the number of values gives the Key's arity. If the name
// does not follow this grammar, ParseKey returns a *ParseError and a
// zero Key.
func (s *Schema) ParseKey(path, suffix string) (Key, error) {
	base := filepath.Base(path)
	if suffix != "" && !strings.HasSuffix(base, suffix) {
		return Key{}, &ParseError{path, fmt.Sprintf("name does not end in %q", suffix)}
	}
	name := strings.TrimSuffix(base, suffix)
	if name == "" {
		return Key{}, &ParseError{path, "name has no key tokens"}
	}
	tokens := strings.Split(name, s.sep)
	if len(tokens) > len(s.fields) {
		return Key{}, &ParseError{path, fmt.Sprintf("name has %d tokens, schema has %d fields", len(tokens), len(s.fields))}
	}
	for i, tok := range tokens {
		if err := s.checkToken(i, tok); err != nil {
			return Key{}, &ParseError{path, err.Error()}
		}
	}
	return s.intern(tokens), nil
}

// intern returns the canonical *keyNode for vals, so that equal
// value sequences of equal arity map to the same node and Keys can
// be compared by pointer.
func (s *Schema) intern(vals []string) Key {
	var h maphash.Hash
	h.SetSeed(s.seed)
	for _, v := range vals {
		h.WriteString(v)
		h.WriteByte(0)
	}
	hash := h.Sum64()

	for _, n := range s.keys[hash] {
		if n.equalVals(vals) {
			return Key{n}
		}
	}
	n := &keyNode{s, append([]string(nil), vals...)}
	s.keys[hash] = append(s.keys[hash], n)
	return Key{n}
}
