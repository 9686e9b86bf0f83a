// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepagg

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/metasweep/sweep/internal/diff"
	"github.com/metasweep/sweep/sweepkey"
)

func testReport(t *testing.T) *Report {
	s := testSchema(t)
	return &Report{Records: []Record{
		{
			Params: key(t, s, "1", "0.01", "louvain").Params(),
			Stats:  Doc{"n50": 4856, "gc": 0.51, "dist": map[string]interface{}{"a": 1}},
		},
		{
			Params: key(t, s, "2", "0.01", "louvain").Params(),
			Stats:  Doc{"n50": 5000},
		},
	}}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	rep := testReport(t)
	var buf bytes.Buffer
	if err := rep.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	recs, err := ParseReport(&buf)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(recs) != len(rep.Records) {
		t.Fatalf("parsed %d records, want %d", len(recs), len(rep.Records))
	}
	for i, rec := range recs {
		if !reflect.DeepEqual(rec.Params, rep.Records[i].Params) {
			t.Errorf("record %d params = %v, want %v", i, rec.Params, rep.Records[i].Params)
		}
	}
	if got := recs[0].Stats["n50"]; got != 4856 {
		t.Errorf("n50 = %v (%T), want 4856", got, got)
	}
	if got := recs[0].Stats["gc"]; got != 0.51 {
		t.Errorf("gc = %v (%T), want 0.51", got, got)
	}
	if _, ok := recs[0].Stats["dist"].(map[string]interface{}); !ok {
		t.Errorf("dist = %v (%T), want nested mapping", recs[0].Stats["dist"], recs[0].Stats["dist"])
	}
}

func TestWriteYAMLLayout(t *testing.T) {
	rep := testReport(t)
	var buf bytes.Buffer
	if err := rep.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	out := buf.String()

	// Each record opens with its parameters block, and parameter
	// order follows the schema, not alphabetical order.
	iParams := strings.Index(out, "parameters:")
	iSeed := strings.Index(out, "seed: 1")
	iAlpha := strings.Index(out, "alpha: 0.01")
	iAlgo := strings.Index(out, "algo: louvain")
	iGC := strings.Index(out, "gc: 0.51")
	if iParams < 0 || iSeed < 0 || iAlpha < 0 || iAlgo < 0 || iGC < 0 {
		t.Fatalf("missing fields in output:\n%s", out)
	}
	if !(iParams < iSeed && iSeed < iAlpha && iAlpha < iAlgo) {
		t.Errorf("parameters out of schema order:\n%s", out)
	}
	// Statistics are merged into the record mapping itself, after
	// the parameters.
	if iGC < iAlgo {
		t.Errorf("statistics precede parameters:\n%s", out)
	}
	if strings.Contains(out, "stats:") {
		t.Errorf("statistics not inlined:\n%s", out)
	}
}

func TestWriteYAMLPreservesTokens(t *testing.T) {
	s := testSchema(t)
	rep := &Report{Records: []Record{{
		Params: key(t, s, "3", "0.010", "mcl").Params(),
		Stats:  Doc{"ok": true},
	}}}
	var buf bytes.Buffer
	if err := rep.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	recs, err := ParseReport(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	// The literal token "0.010" survives the round trip; values are
	// never renormalized.
	if got, _ := recs[0].Params.Get("alpha"); got != "0.010" {
		t.Errorf("alpha = %q, want %q", got, "0.010")
	}
	k, err := s.Key(recs[0].Params.Values()...)
	if err != nil {
		t.Fatalf("rebuilding key: %v", err)
	}
	if k != key(t, s, "3", "0.010", "mcl") {
		t.Errorf("rebuilt key = %v", k)
	}
}

func TestWriteYAMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := new(Report).WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	if got, want := buf.String(), "[]\n"; got != want {
		t.Errorf("empty report = %q, want %q", got, want)
	}
	recs, err := ParseReport(&buf)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("parsed %d records from empty report", len(recs))
	}
}

func TestWriteYAMLReservedStat(t *testing.T) {
	s := testSchema(t)
	rep := &Report{Records: []Record{{
		Params: key(t, s, "3", "0.5", "mcl").Params(),
		Stats:  Doc{"parameters": 1},
	}}}
	var buf bytes.Buffer
	err := rep.WriteYAML(&buf)
	if err == nil {
		t.Fatal("WriteYAML with a reserved statistic succeeded")
	}
	if !strings.Contains(err.Error(), `"parameters"`) || !strings.Contains(err.Error(), "seed:3") {
		t.Errorf("error = %v, want the reserved key and the record's parameters", err)
	}
	if buf.Len() != 0 {
		t.Errorf("partial output written: %q", buf.String())
	}
	// The report itself is untouched.
	if len(rep.Records) != 1 {
		t.Errorf("records = %d after failed write, want 1", len(rep.Records))
	}
}

func TestParseReportHandwritten(t *testing.T) {
	const doc = `
- parameters:
    seed: 1
    alpha: 0.01
    algo: louvain
  n50: 4856
  gc: 0.51
- parameters:
    seed: 2
    alpha: 0.01
    algo: louvain
  n50: 5000
`
	recs, err := ParseReport(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("parsed %d records, want 2", len(recs))
	}
	want := sweepkey.Params{
		{Name: "seed", Value: "1"},
		{Name: "alpha", Value: "0.01"},
		{Name: "algo", Value: "louvain"},
	}
	if !reflect.DeepEqual(recs[0].Params, want) {
		t.Errorf("params = %v, want %v", recs[0].Params, want)
	}
	if got := recs[1].Stats["n50"]; got != 5000 {
		t.Errorf("n50 = %v, want 5000", got)
	}
}

func TestParseReportEmptyInput(t *testing.T) {
	recs, err := ParseReport(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if recs != nil {
		t.Errorf("records = %v, want nil", recs)
	}
}

func TestWriteFile(t *testing.T) {
	rep := testReport(t)
	path := filepath.Join(t.TempDir(), "all_stats.yaml")
	if err := rep.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := ParseReport(f)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("read back %d records, want 2", len(recs))
	}
}

func TestWriteFileError(t *testing.T) {
	rep := testReport(t)
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "all_stats.yaml")
	if err := rep.WriteFile(path); err == nil {
		t.Fatal("WriteFile to missing directory succeeded")
	}
	// The report survives a failed write.
	if len(rep.Records) != 2 {
		t.Errorf("records = %d after failed write, want 2", len(rep.Records))
	}
}

func TestWriteCSV(t *testing.T) {
	rep := testReport(t)
	var buf bytes.Buffer
	if err := rep.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := `seed,alpha,algo,gc,n50
1,0.01,louvain,0.51,4856
2,0.01,louvain,,5000
`
	if d := diff.Diff(buf.String(), want); d != "" {
		t.Errorf("CSV mismatch (-got +want):\n%s", d)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := new(Report).WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("empty report CSV = %q", buf.String())
	}
}

func TestScalar(t *testing.T) {
	tests := []struct {
		v    interface{}
		want string
		ok   bool
	}{
		{"x", "x", true},
		{true, "true", true},
		{42, "42", true},
		{int64(7), "7", true},
		{uint64(8), "8", true},
		{1.5, "1.5", true},
		{map[string]interface{}{"a": 1}, "", false},
		{[]interface{}{1}, "", false},
		{nil, "", false},
	}
	for _, tt := range tests {
		got, ok := scalar(tt.v)
		if got != tt.want || ok != tt.ok {
			t.Errorf("scalar(%v) = %q, %v; want %q, %v", tt.v, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		v    interface{}
		want float64
		ok   bool
	}{
		{42, 42, true},
		{int64(7), 7, true},
		{uint64(8), 8, true},
		{1.5, 1.5, true},
		{"42", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := numeric(tt.v)
		if got != tt.want || ok != tt.ok {
			t.Errorf("numeric(%v) = %v, %v; want %v, %v", tt.v, got, ok, tt.want, tt.ok)
		}
	}
}
