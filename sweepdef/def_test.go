// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sweepdef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const hicDef = `
output_dir: out
schema:
  - {name: seed,  type: int}
  - {name: alpha, type: float}
  - {name: xfold, type: int}
  - {name: n3c,   type: int}
  - {name: algo}
streams:
  - {name: asmstat, glob: "*.asmstat", depth: 3}
  - {name: graph,   glob: "*.graphml", depth: 4}
  - {name: gstat,   glob: "*.gstat",   depth: 4}
  - {name: cluster, glob: "*.cl",      depth: 5}
aggregator: [bin/aggregate_stats.py, --min-len, "1000"]
`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(hicDef))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.OutputDir != "out" {
		t.Errorf("OutputDir = %q", def.OutputDir)
	}
	if def.Separator != "-" {
		t.Errorf("Separator = %q, want default %q", def.Separator, "-")
	}
	if len(def.Schema) != 5 || len(def.Streams) != 4 {
		t.Fatalf("parsed %d fields, %d streams", len(def.Schema), len(def.Streams))
	}
	if got := def.Aggregator; len(got) != 3 || got[0] != "bin/aggregate_stats.py" {
		t.Errorf("Aggregator = %v", got)
	}

	schema, err := def.CompileSchema()
	if err != nil {
		t.Fatalf("CompileSchema: %v", err)
	}
	if schema.Arity() != 5 {
		t.Errorf("schema arity = %d, want 5", schema.Arity())
	}
	// Untyped "algo" defaults to string.
	if fields := schema.Fields(); fields[4].Name != "algo" || fields[4].Kind.String() != "string" {
		t.Errorf("field 4 = %+v", fields[4])
	}
}

func TestParseErrors(t *testing.T) {
	check := func(doc, want string) {
		t.Helper()
		_, err := Parse([]byte(doc))
		if err == nil {
			t.Errorf("Parse succeeded, want error %q", want)
		} else if !strings.Contains(err.Error(), want) {
			t.Errorf("Parse = %v, want error %q", err, want)
		}
	}

	check("", "empty sweep definition")
	check("bogus_field: 1\nschema: [{name: a}]\nstreams: [{name: s, glob: \"*.x\", depth: 1}]", "bogus_field")
	check("streams: [{name: s, glob: \"*.x\", depth: 1}]", "no schema fields")
	check("schema: [{name: a, type: double}]\nstreams: [{name: s, glob: \"*.x\", depth: 1}]", "unknown field type")
	check("schema: [{name: a}]", "no streams")
	check("schema: [{name: a}]\nstreams: [{glob: \"*.x\", depth: 1}]", "empty name")
	check("schema: [{name: a}]\nstreams: [{name: s, depth: 1}]", "has no glob")
	check("schema: [{name: a}]\nstreams: [{name: s, glob: \"*.x\", depth: 2}]", "out of range")
	check("schema: [{name: a}]\nstreams: [{name: s, glob: \"*.x\", depth: 1}, {name: s, glob: \"*.y\", depth: 1}]", "declared twice")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.yaml")
	if err := os.WriteFile(path, []byte(hicDef), 0666); err != nil {
		t.Fatal(err)
	}

	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if def.OutputDir != "out" {
		t.Errorf("OutputDir = %q", def.OutputDir)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("Load of missing file succeeded")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("schema: [{name: a}]"), 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("Load of invalid file = %v, want error naming %s", err, bad)
	}
}

func TestDiscover(t *testing.T) {
	def, err := Parse([]byte(hicDef))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	schema, err := def.CompileSchema()
	if err != nil {
		t.Fatalf("CompileSchema: %v", err)
	}

	dir := t.TempDir()
	for _, name := range []string{
		"1-0.5-10.asmstat",
		"1-0.5-10-5000.graphml",
		"1-0.5-10-5000.gstat",
		"1-0.5-10-5000-louvain.cl",
		"1-0.5-10-5000-mcl.cl",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0666); err != nil {
			t.Fatal(err)
		}
	}

	streams, err := def.Discover(schema, dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(streams) != 4 {
		t.Fatalf("discovered %d streams, want 4", len(streams))
	}
	wantItems := []int{1, 1, 1, 2}
	for i, st := range streams {
		if st.Name() != def.Streams[i].Name {
			t.Errorf("stream %d = %s, want declaration order %s", i, st.Name(), def.Streams[i].Name)
		}
		if st.NumItems() != wantItems[i] {
			t.Errorf("stream %s has %d items, want %d", st.Name(), st.NumItems(), wantItems[i])
		}
	}

	// A stray file that defeats key parsing fails discovery.
	if err := os.WriteFile(filepath.Join(dir, "junk.asmstat"), nil, 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := def.Discover(schema, dir); err == nil {
		t.Errorf("Discover with unparsable file succeeded")
	}
}
