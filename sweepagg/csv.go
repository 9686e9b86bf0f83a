// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepagg

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the report as CSV: a header row of parameter names
// followed by statistic names, then one row per record. Only
// top-level scalar statistics become columns; a record missing a
// statistic leaves the cell empty.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if len(r.Records) == 0 {
		cw.Flush()
		return cw.Error()
	}

	stats := scalarKeys(r.Records)
	var header []string
	for _, p := range r.Records[0].Params {
		header = append(header, p.Name)
	}
	header = append(header, stats...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range r.Records {
		row := make([]string, 0, len(header))
		for _, p := range rec.Params {
			row = append(row, p.Value)
		}
		for _, k := range stats {
			v, _ := scalar(rec.Stats[k])
			row = append(row, v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
