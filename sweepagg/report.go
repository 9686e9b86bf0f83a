// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepagg

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/metasweep/sweep/sweepkey"
)

// A Record is one tuple's entry in the report: the tuple's
// parameters merged with the aggregator's document. It serializes as
// a single YAML mapping whose "parameters" key holds the ordered
// name→value map and whose remaining keys are the document's.
type Record struct {
	Params sweepkey.Params `yaml:"parameters"`
	Stats  Doc             `yaml:",inline"`
}

// A Report is the collected outcome of one aggregation run.
type Report struct {
	// Records holds one record per successfully aggregated tuple,
	// in stream emission order.
	Records []Record
	// Failures holds the tuples whose aggregation failed, in the
	// same order. They are not part of the serialized report.
	Failures []Failure
}

// WriteYAML serializes the report's records to w as one YAML
// document whose top level is the ordered list of records.
func (r *Report) WriteYAML(w io.Writer) error {
	recs := r.Records
	if recs == nil {
		recs = []Record{}
	}
	// The inline encoding of Stats cannot represent a statistic
	// named like the parameters block. Run screens aggregator
	// documents for this, but a hand-built record must error here
	// rather than panic inside the encoder.
	for i, rec := range recs {
		if _, ok := rec.Stats["parameters"]; ok {
			return fmt.Errorf("record %d (%s): statistic %q conflicts with the parameters block",
				i, rec.Params, "parameters")
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recs); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// WriteFile writes the report to path. On error the report remains
// intact in memory, so the caller can retry elsewhere.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteYAML(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ParseReport reads back a report document written by WriteYAML.
func ParseReport(r io.Reader) ([]Record, error) {
	dec := yaml.NewDecoder(r)
	var recs []Record
	if err := dec.Decode(&recs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	return recs, nil
}

// scalar returns v rendered as a cell value if v is a YAML scalar,
// with ok reporting whether it was one. Nested mappings and
// sequences are not scalars.
func scalar(v interface{}) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(v), true
	}
	return "", false
}

// numeric returns v as a float64 if it is a YAML number.
func numeric(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// scalarKeys returns the sorted union of the records' top-level
// scalar statistic names.
func scalarKeys(records []Record) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for k, v := range rec.Stats {
			if _, ok := scalar(v); ok && !seen[k] {
				seen[k] = true
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// numericKeys returns the sorted union of the records' top-level
// numeric statistic names.
func numericKeys(records []Record) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for k, v := range rec.Stats {
			if _, ok := numeric(v); ok && !seen[k] {
				seen[k] = true
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
