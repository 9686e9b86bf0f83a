// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepstream

import (
	"fmt"

	"github.com/metasweep/sweep/sweepkey"
)

// JoinStats describes one join: how many tuples it emitted and
// which keys were dropped for lack of a counterpart on the other
// side. Dropping is inner-join semantics and is never fatal, but a
// dropped key is lost sweep data, so callers should surface these.
type JoinStats struct {
	Tuples   int
	DroppedA []sweepkey.Key
	DroppedB []sweepkey.Key
}

// Dropped returns the total number of dropped keys on both sides.
func (js JoinStats) Dropped() int {
	return len(js.DroppedA) + len(js.DroppedB)
}

// FlatCross joins two streams of equal depth on full-key equality.
//
// For each key present in both streams with m items in a and n in b,
// it emits m×n items, ordered by (a item, b item) with a outermost,
// each concatenating the a item's files with the b item's files.
// Keys present on only one side emit nothing and are reported in the
// returned JoinStats. Streams of unequal depth are a configuration
// error.
func FlatCross(a, b *Stream) (*Stream, JoinStats, error) {
	var stats JoinStats
	if a.depth != b.depth {
		return nil, stats, fmt.Errorf("flat cross %s x %s: depths %d and %d differ", a.name, b.name, a.depth, b.depth)
	}
	if err := checkSchemas(a, b); err != nil {
		return nil, stats, err
	}

	var items []Item
	for _, k := range a.keys {
		bItems := b.items[k]
		if len(bItems) == 0 {
			stats.DroppedA = append(stats.DroppedA, k)
			continue
		}
		for _, ai := range a.items[k] {
			for _, bi := range bItems {
				items = append(items, Item{k, catFiles(ai.Files, bi.Files)})
			}
		}
	}
	for _, k := range b.keys {
		if len(a.items[k]) == 0 {
			stats.DroppedB = append(stats.DroppedB, k)
		}
	}

	out, err := New(a.name+"+"+b.name, a.depth, items)
	if err != nil {
		return nil, stats, err
	}
	stats.Tuples = out.NumItems()
	return out, stats, nil
}

// JoinPrefix joins stream a, whose depth must be at least depth,
// with stream b, whose depth must be exactly depth, matching each a
// key's leading depth values against b's keys.
//
// Every (a item, matching b item) pair emits one item carrying the
// a item's full-arity key and the a files followed by the b files;
// pairs are ordered (a item, b item) with a outermost. A keys with
// no matching prefix in b, and b keys matched by no a key, emit
// nothing and are reported in the returned JoinStats. Depth
// disagreements are configuration errors.
func JoinPrefix(a, b *Stream, depth int) (*Stream, JoinStats, error) {
	var stats JoinStats
	if b.depth != depth {
		return nil, stats, fmt.Errorf("join %s with %s: stream %s has depth %d, join depth is %d", a.name, b.name, b.name, b.depth, depth)
	}
	if a.depth < depth {
		return nil, stats, fmt.Errorf("join %s with %s: stream %s has depth %d, need at least %d", a.name, b.name, a.name, a.depth, depth)
	}
	if err := checkSchemas(a, b); err != nil {
		return nil, stats, err
	}

	var items []Item
	used := make(map[sweepkey.Key]bool)
	for _, ak := range a.keys {
		p := ak.Prefix(depth)
		bItems := b.items[p]
		if len(bItems) == 0 {
			stats.DroppedA = append(stats.DroppedA, ak)
			continue
		}
		used[p] = true
		for _, ai := range a.items[ak] {
			for _, bi := range bItems {
				items = append(items, Item{ak, catFiles(ai.Files, bi.Files)})
			}
		}
	}
	for _, bk := range b.keys {
		if !used[bk] {
			stats.DroppedB = append(stats.DroppedB, bk)
		}
	}

	out, err := New(a.name+"+"+b.name, a.depth, items)
	if err != nil {
		return nil, stats, err
	}
	stats.Tuples = out.NumItems()
	return out, stats, nil
}

func checkSchemas(a, b *Stream) error {
	if a.schema != nil && b.schema != nil && a.schema != b.schema {
		return fmt.Errorf("join %s with %s: streams come from different schemas", a.name, b.name)
	}
	return nil
}

func catFiles(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
