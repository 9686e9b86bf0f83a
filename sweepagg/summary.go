// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepagg

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/metasweep/sweep/sweepkey"
	"github.com/metasweep/sweep/sweepmath"
)

// A GroupSummary summarizes every numeric statistic across the
// records that share one combination of grouping parameters.
type GroupSummary struct {
	// Group holds the parameters the group is fixed on, in schema
	// order.
	Group sweepkey.Params
	// Stats maps statistic name to its summary over the group.
	Stats map[string]sweepmath.Summary
}

// Summarize groups records by every parameter except those named in
// vary and summarizes each numeric statistic within each group at
// the given confidence level. Varying a replicate dimension, for
// example the seed, summarizes each remaining sweep point across its
// replicates. Groups are returned in record order.
func Summarize(records []Record, vary []string, confidence float64) ([]GroupSummary, error) {
	if len(records) == 0 {
		return nil, nil
	}
	varying := make(map[string]bool)
	for _, name := range vary {
		if _, ok := records[0].Params.Get(name); !ok {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		varying[name] = true
	}

	type group struct {
		params  sweepkey.Params
		samples map[string][]float64
	}
	groups := make(map[string]*group)
	var order []string

	for _, rec := range records {
		var fixed sweepkey.Params
		var id strings.Builder
		for _, p := range rec.Params {
			if varying[p.Name] {
				continue
			}
			fixed = append(fixed, p)
			id.WriteString(p.Name)
			id.WriteByte('=')
			id.WriteString(p.Value)
			id.WriteByte(0)
		}
		g, ok := groups[id.String()]
		if !ok {
			g = &group{params: fixed, samples: make(map[string][]float64)}
			groups[id.String()] = g
			order = append(order, id.String())
		}
		for name, v := range rec.Stats {
			if x, ok := numeric(v); ok {
				g.samples[name] = append(g.samples[name], x)
			}
		}
	}

	out := make([]GroupSummary, 0, len(order))
	for _, id := range order {
		g := groups[id]
		gs := GroupSummary{Group: g.params, Stats: make(map[string]sweepmath.Summary, len(g.samples))}
		for name, vals := range g.samples {
			gs.Stats[name] = sweepmath.NewSample(vals).Summary(confidence)
		}
		out = append(out, gs)
	}
	return out, nil
}

// WriteSummaries writes group summaries as a YAML list: one entry
// per group carrying its fixed parameters and, per statistic, the
// sample summary.
func WriteSummaries(w io.Writer, sums []GroupSummary) error {
	list := make([]map[string]interface{}, 0, len(sums))
	for _, gs := range sums {
		stats := make(map[string]interface{}, len(gs.Stats))
		for name, s := range gs.Stats {
			stats[name] = map[string]interface{}{
				"n":          s.N,
				"mean":       s.Mean,
				"lo":         s.Lo,
				"hi":         s.Hi,
				"median":     s.Median,
				"min":        s.Min,
				"max":        s.Max,
				"confidence": s.Confidence,
			}
		}
		list = append(list, map[string]interface{}{
			"parameters": gs.Group,
			"stats":      stats,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
