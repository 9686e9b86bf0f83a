// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepagg

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/metasweep/sweep/sweepkey"
)

func replicateRecords(t *testing.T) []Record {
	s := testSchema(t)
	mk := func(seed, alpha string, n50 float64) Record {
		return Record{
			Params: key(t, s, seed, alpha, "louvain").Params(),
			Stats:  Doc{"n50": n50, "note": "x"},
		}
	}
	return []Record{
		mk("1", "0.01", 10),
		mk("2", "0.01", 20),
		mk("1", "0.5", 30),
		mk("2", "0.5", 40),
	}
}

func TestSummarize(t *testing.T) {
	sums, err := Summarize(replicateRecords(t), []string{"seed"}, 0.95)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("groups = %d, want 2", len(sums))
	}

	wantGroups := []sweepkey.Params{
		{{Name: "alpha", Value: "0.01"}, {Name: "algo", Value: "louvain"}},
		{{Name: "alpha", Value: "0.5"}, {Name: "algo", Value: "louvain"}},
	}
	for i, gs := range sums {
		if !reflect.DeepEqual(gs.Group, wantGroups[i]) {
			t.Errorf("group %d = %v, want %v", i, gs.Group, wantGroups[i])
		}
	}

	g0, ok := sums[0].Stats["n50"]
	if !ok {
		t.Fatalf("group 0 missing n50 summary: %v", sums[0].Stats)
	}
	if g0.N != 2 || g0.Mean != 15 || g0.Min != 10 || g0.Max != 20 || g0.Median != 15 {
		t.Errorf("group 0 n50 = %+v", g0)
	}
	if !(g0.Lo <= g0.Mean && g0.Mean <= g0.Hi) {
		t.Errorf("group 0 interval [%v, %v] excludes mean %v", g0.Lo, g0.Hi, g0.Mean)
	}
	if g0.Confidence != 0.95 {
		t.Errorf("group 0 confidence = %v, want 0.95", g0.Confidence)
	}
	if g1 := sums[1].Stats["n50"]; g1.Mean != 35 {
		t.Errorf("group 1 n50 mean = %v, want 35", g1.Mean)
	}

	// Non-numeric statistics are not summarized.
	if _, ok := sums[0].Stats["note"]; ok {
		t.Errorf("string statistic was summarized: %v", sums[0].Stats)
	}
}

func TestSummarizeNoVary(t *testing.T) {
	// With nothing varying, every record is its own group.
	sums, err := Summarize(replicateRecords(t), nil, 0.95)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(sums) != 4 {
		t.Fatalf("groups = %d, want 4", len(sums))
	}
	if got := sums[0].Stats["n50"].N; got != 1 {
		t.Errorf("singleton group n = %d, want 1", got)
	}
}

func TestSummarizeUnknownParameter(t *testing.T) {
	_, err := Summarize(replicateRecords(t), []string{"nope"}, 0.95)
	if err == nil || !strings.Contains(err.Error(), `unknown parameter "nope"`) {
		t.Errorf("err = %v, want unknown parameter", err)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sums, err := Summarize(nil, []string{"seed"}, 0.95)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sums != nil {
		t.Errorf("summaries = %v, want nil", sums)
	}
}

func TestWriteSummaries(t *testing.T) {
	sums, err := Summarize(replicateRecords(t), []string{"seed"}, 0.95)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteSummaries(&buf, sums); err != nil {
		t.Fatalf("WriteSummaries: %v", err)
	}

	var got []struct {
		Parameters map[string]interface{} `yaml:"parameters"`
		Stats      map[string]map[string]interface{}
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decoding summaries: %v\n%s", err, buf.String())
	}
	if len(got) != 2 {
		t.Fatalf("decoded %d groups, want 2", len(got))
	}
	if got[0].Parameters["algo"] != "louvain" {
		t.Errorf("group 0 algo = %v", got[0].Parameters["algo"])
	}
	n50 := got[0].Stats["n50"]
	if n50 == nil {
		t.Fatalf("group 0 missing n50:\n%s", buf.String())
	}
	if n50["n"] != 2 {
		t.Errorf("n50 n = %v, want 2", n50["n"])
	}
	if m, ok := numeric(n50["mean"]); !ok || m != 15 {
		t.Errorf("n50 mean = %v, want 15", n50["mean"])
	}
}
