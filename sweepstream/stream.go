// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sweepstream builds keyed streams from a sweep's output
// files and joins them into the tuples handed to aggregation.
//
// A Stream is an immutable collection of (Key, files) items grouped
// by Key, built once by globbing an output directory (Glob) or from
// literal items (New), and never mutated afterward. Streams carry a
// declared depth: the uniform arity of every key in the stream.
// The combinators FlatCross and JoinPrefix are pure functions that
// produce new streams; Combine assembles a whole set of streams into
// the final joined stream using only declared depths, so no call
// site carries magic depth constants.
package sweepstream

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/metasweep/sweep/sweepkey"
)

// A Spec declares one file kind of a sweep: the glob that finds its
// files and the key depth its names carry.
type Spec struct {
	// Name identifies the stream in errors and join notes.
	Name string
	// Glob matches the stream's files under the sweep output
	// directory.
	Glob string
	// Depth is the arity of the keys embedded in the stream's
	// file names.
	Depth int
	// Suffix is the file-name suffix following the key tokens.
	// If empty, it defaults to the literal tail of Glob after its
	// last "*".
	Suffix string
}

func (sp Spec) suffix() string {
	if sp.Suffix != "" {
		return sp.Suffix
	}
	if i := strings.LastIndex(sp.Glob, "*"); i >= 0 {
		return sp.Glob[i+1:]
	}
	return ""
}

// An Item is one keyed unit of a stream: a Key and the ordered
// files carrying that key. Several items may share a Key within one
// stream; joins cross-multiply them.
type Item struct {
	Key   sweepkey.Key
	Files []string
}

// A Stream is an immutable keyed collection of items of uniform key
// arity.
type Stream struct {
	name   string
	depth  int
	schema *sweepkey.Schema

	items map[sweepkey.Key][]Item
	keys  []sweepkey.Key // sorted
	n     int
}

// An ArityError reports a file whose key arity disagrees with its
// stream's declared depth. Depth arithmetic in joins assumes uniform
// arity per stream, so this is fatal at construction.
type ArityError struct {
	Stream string
	Path   string
	Got    int
	Want   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("stream %s: %s: key arity %d, stream depth %d", e.Stream, e.Path, e.Got, e.Want)
}

// Glob builds the Stream declared by spec from the files matching
// spec.Glob under dir, extracting one key per file with schema.
//
// Matches are processed in sorted path order, so repeated discovery
// over an unchanged directory builds an identical stream. An empty
// match set yields an empty stream. Any file whose name fails key
// extraction (*sweepkey.ParseError) or whose key arity differs from
// spec.Depth (*ArityError) fails construction.
func Glob(schema *sweepkey.Schema, dir string, spec Spec) (*Stream, error) {
	if spec.Depth > schema.Arity() {
		return nil, fmt.Errorf("stream %s: depth %d exceeds schema arity %d", spec.Name, spec.Depth, schema.Arity())
	}
	paths, err := filepath.Glob(filepath.Join(dir, spec.Glob))
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", spec.Name, err)
	}
	sort.Strings(paths)

	suffix := spec.suffix()
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		k, err := schema.ParseKey(p, suffix)
		if err != nil {
			return nil, err
		}
		if k.Arity() != spec.Depth {
			return nil, &ArityError{spec.Name, p, k.Arity(), spec.Depth}
		}
		items = append(items, Item{k, []string{p}})
	}
	return New(spec.Name, spec.Depth, items)
}

// New builds a Stream from literal items. Every item must have a
// key of arity depth, from a single schema, and a non-empty file
// list.
func New(name string, depth int, items []Item) (*Stream, error) {
	if name == "" {
		return nil, fmt.Errorf("stream must have a name")
	}
	if depth < 1 {
		return nil, fmt.Errorf("stream %s: depth %d out of range", name, depth)
	}
	st := &Stream{
		name:  name,
		depth: depth,
		items: make(map[sweepkey.Key][]Item),
	}
	for _, it := range items {
		if it.Key.Arity() != depth {
			path := ""
			if len(it.Files) > 0 {
				path = it.Files[0]
			}
			return nil, &ArityError{name, path, it.Key.Arity(), depth}
		}
		if len(it.Files) == 0 {
			return nil, fmt.Errorf("stream %s: item %v has no files", name, it.Key)
		}
		if st.schema == nil {
			st.schema = it.Key.Schema()
		} else if it.Key.Schema() != st.schema {
			return nil, fmt.Errorf("stream %s: item %v comes from a different schema", name, it.Key)
		}
		if _, ok := st.items[it.Key]; !ok {
			st.keys = append(st.keys, it.Key)
		}
		st.items[it.Key] = append(st.items[it.Key], it)
		st.n++
	}
	sweepkey.SortKeys(st.keys)
	return st, nil
}

// Name returns the stream's name.
func (st *Stream) Name() string { return st.name }

// Depth returns the declared key arity of the stream.
func (st *Stream) Depth() int { return st.depth }

// NumItems returns the total number of items in the stream.
func (st *Stream) NumItems() int { return st.n }

// NumKeys returns the number of distinct keys in the stream.
func (st *Stream) NumKeys() int { return len(st.keys) }

// NumFiles returns the total number of files across all items.
func (st *Stream) NumFiles() int {
	n := 0
	for _, items := range st.items {
		for _, it := range items {
			n += len(it.Files)
		}
	}
	return n
}

// Keys returns the stream's distinct keys in sorted order.
func (st *Stream) Keys() []sweepkey.Key {
	return append([]sweepkey.Key(nil), st.keys...)
}

// Items returns the items carrying key k, in construction order, or
// nil if the stream has no such key.
func (st *Stream) Items(k sweepkey.Key) []Item {
	return append([]Item(nil), st.items[k]...)
}

// All returns every item of the stream in its deterministic
// emission order: sorted by key, then by per-key construction
// order. This is the order the aggregation driver consumes.
func (st *Stream) All() []Item {
	out := make([]Item, 0, st.n)
	for _, k := range st.keys {
		out = append(out, st.items[k]...)
	}
	return out
}
