// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepagg

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Chart renders box-plot charts of report statistics into dir, one
// PNG per statistic. Each chart groups the statistic's values by the
// distinct values of the parameter xField, in numeric order when the
// values parse as numbers. An empty stats list means every numeric
// statistic in the report. Statistics with no values are skipped.
func Chart(records []Record, xField string, stats []string, dir string, logScale bool) error {
	if len(records) == 0 {
		return nil
	}
	if _, ok := records[0].Params.Get(xField); !ok {
		return fmt.Errorf("unknown parameter %q", xField)
	}
	if len(stats) == 0 {
		stats = numericKeys(records)
	}

	// The distinct x values, ordered.
	seen := make(map[string]bool)
	var xs []string
	for _, rec := range records {
		if v, ok := rec.Params.Get(xField); ok && !seen[v] {
			seen[v] = true
			xs = append(xs, v)
		}
	}
	sortValues(xs)

	for _, stat := range stats {
		pl := plot.New()
		pl.Title.Text = stat
		pl.X.Label.Text = xField
		pl.Y.Label.Text = stat
		if logScale {
			pl.Y.Scale = plot.LogScale{}
			pl.Y.Tick.Marker = plot.LogTicks{Prec: -1}
		}
		pl.Add(plotter.NewGrid())

		boxes := 0
		for i, xv := range xs {
			var vals plotter.Values
			for _, rec := range records {
				v, ok := rec.Params.Get(xField)
				if !ok || v != xv {
					continue
				}
				if y, ok := numeric(rec.Stats[stat]); ok {
					vals = append(vals, y)
				}
			}
			if len(vals) == 0 {
				continue
			}
			b, err := plotter.NewBoxPlot(vg.Points(20), float64(i), vals)
			if err != nil {
				return fmt.Errorf("chart %s: %w", stat, err)
			}
			pl.Add(b)
			boxes++
		}
		if boxes == 0 {
			continue
		}
		pl.NominalX(xs...)

		can := vgimg.PngCanvas{Canvas: vgimg.NewWith(
			vgimg.UseWH(8*vg.Inch, 4*vg.Inch),
			vgimg.UseDPI(96),
			vgimg.UseBackgroundColor(color.White),
		)}
		pl.Draw(draw.New(can))

		name := filepath.Join(dir, chartFile(stat)+".png")
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		if _, err := can.WriteTo(f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// sortValues sorts parameter values numerically when every value
// parses as a number, lexically otherwise.
func sortValues(vals []string) {
	sort.Slice(vals, func(i, j int) bool {
		a, erra := strconv.ParseFloat(vals[i], 64)
		b, errb := strconv.ParseFloat(vals[j], 64)
		if erra == nil && errb == nil && a != b {
			return a < b
		}
		return vals[i] < vals[j]
	})
}

// chartFile maps a statistic name to a safe file stem.
func chartFile(stat string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, stat)
}
