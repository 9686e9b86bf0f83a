// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepstream

import (
	"fmt"
	"sort"
)

// A JoinNote records one combining step taken by Combine, for
// logging: which operation joined which streams and what it dropped.
type JoinNote struct {
	Op    string // "flatcross" or "join"
	Left  string
	Right string
	Depth int // join depth; 0 for flatcross
	Stats JoinStats
}

func (n JoinNote) String() string {
	switch n.Op {
	case "join":
		return fmt.Sprintf("join %s with %s at depth %d: %d tuples, %d keys dropped", n.Left, n.Right, n.Depth, n.Stats.Tuples, n.Stats.Dropped())
	default:
		return fmt.Sprintf("flat cross %s with %s: %d tuples, %d keys dropped", n.Left, n.Right, n.Stats.Tuples, n.Stats.Dropped())
	}
}

// Combine assembles a set of streams into the final joined stream.
//
// Streams of equal depth are flat-crossed in declaration order, then
// the per-depth results are prefix-joined from the deepest down to
// the shallowest, so every tuple ends with the arity of the deepest
// stream. The join depth of each step is the shallower side's
// declared depth. Combine returns one JoinNote per combining step.
func Combine(streams []*Stream) (*Stream, []JoinNote, error) {
	if len(streams) == 0 {
		return nil, nil, fmt.Errorf("no streams to combine")
	}

	// Flat-cross within each depth, keeping declaration order.
	byDepth := make(map[int]*Stream)
	var depths []int
	var notes []JoinNote
	for _, st := range streams {
		acc, ok := byDepth[st.depth]
		if !ok {
			byDepth[st.depth] = st
			depths = append(depths, st.depth)
			continue
		}
		left := acc.name
		acc, stats, err := FlatCross(acc, st)
		if err != nil {
			return nil, notes, err
		}
		notes = append(notes, JoinNote{Op: "flatcross", Left: left, Right: st.name, Stats: stats})
		byDepth[st.depth] = acc
	}

	// Join depth groups, deepest first, each at the shallower
	// group's depth.
	sort.Sort(sort.Reverse(sort.IntSlice(depths)))
	cur := byDepth[depths[0]]
	for _, d := range depths[1:] {
		left := cur.name
		next, stats, err := JoinPrefix(cur, byDepth[d], d)
		if err != nil {
			return nil, notes, err
		}
		notes = append(notes, JoinNote{Op: "join", Left: left, Right: byDepth[d].name, Depth: d, Stats: stats})
		cur = next
	}
	return cur, notes, nil
}
