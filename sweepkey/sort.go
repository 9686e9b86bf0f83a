// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepkey

import (
	"sort"
	"strconv"
)

// Less reports whether k comes before o. Keys are ordered field by
// field in schema order: numerically for Int and Float fields,
// lexically for String fields. If one key is a prefix of the other,
// the shorter key comes first. Less panics if k and o come from
// different Schemas.
func (k Key) Less(o Key) bool {
	if k.k == nil || o.k == nil {
		return k.k == nil && o.k != nil
	}
	if k.k.schema != o.k.schema {
		panic("sweepkey: keys must come from the same Schema")
	}
	a, b := k.k.vals, o.k.vals
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		return lessValue(k.k.schema.fields[i].Kind, a[i], b[i])
	}
	return len(a) < len(b)
}

func lessValue(kind Kind, a, b string) bool {
	switch kind {
	case Int:
		ai, erra := strconv.ParseInt(a, 10, 64)
		bi, errb := strconv.ParseInt(b, 10, 64)
		if erra == nil && errb == nil {
			return ai < bi
		}
	case Float:
		af, erra := strconv.ParseFloat(a, 64)
		bf, errb := strconv.ParseFloat(b, 64)
		if erra == nil && errb == nil {
			if af != bf {
				return af < bf
			}
			// Distinct tokens for the same number ("0.1" vs
			// "0.10") still need a total order.
			return a < b
		}
	}
	return a < b
}

// SortKeys sorts keys in place using Key.Less.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
}
