// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sweepdef reads sweep definition files.
//
// A definition is a YAML document declaring everything a sweep's
// aggregation needs: the ordered, typed key schema, the file streams
// and their depths, the output directory, and the external
// aggregator command. It replaces ambient pipeline state: callers
// load a Definition and pass the values it yields into stream
// construction and the driver explicitly.
//
//	output_dir: out
//	separator: "-"
//	schema:
//	  - {name: seed,  type: int}
//	  - {name: alpha, type: float}
//	  - {name: xfold, type: int}
//	  - {name: n3c,   type: int}
//	  - {name: algo,  type: string}
//	streams:
//	  - {name: asmstat, glob: "*.asmstat", depth: 3}
//	  - {name: graph,   glob: "*.graphml", depth: 4}
//	  - {name: gstat,   glob: "*.gstat",   depth: 4}
//	  - {name: geigh,   glob: "*.geigh",   depth: 4}
//	  - {name: cluster, glob: "*.cl",      depth: 5}
//	  - {name: bc,      glob: "*.bc",      depth: 5}
//	aggregator: [bin/aggregate_stats.py]
package sweepdef

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metasweep/sweep/sweepkey"
	"github.com/metasweep/sweep/sweepstream"
)

// A FieldDef declares one schema field. Type is one of "string",
// "int", or "float"; an empty Type means "string".
type FieldDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// A StreamDef declares one file stream of the sweep.
type StreamDef struct {
	Name   string `yaml:"name"`
	Glob   string `yaml:"glob"`
	Depth  int    `yaml:"depth"`
	Suffix string `yaml:"suffix,omitempty"`
}

// A Definition is one sweep's aggregation configuration.
type Definition struct {
	OutputDir  string      `yaml:"output_dir,omitempty"`
	Separator  string      `yaml:"separator,omitempty"`
	Schema     []FieldDef  `yaml:"schema"`
	Streams    []StreamDef `yaml:"streams"`
	Aggregator []string    `yaml:"aggregator,omitempty"`
}

// Load reads and parses the definition file at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse parses a definition document. Unknown fields are errors, as
// is any declaration the schema or stream rules reject.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	def := new(Definition)
	if err := dec.Decode(def); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty sweep definition")
		}
		return nil, err
	}
	if def.Separator == "" {
		def.Separator = "-"
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (d *Definition) validate() error {
	if len(d.Schema) == 0 {
		return fmt.Errorf("sweep definition declares no schema fields")
	}
	for _, f := range d.Schema {
		if f.Type == "" {
			continue
		}
		if _, err := sweepkey.ParseKind(f.Type); err != nil {
			return fmt.Errorf("schema field %q: %w", f.Name, err)
		}
	}
	if len(d.Streams) == 0 {
		return fmt.Errorf("sweep definition declares no streams")
	}
	names := make(map[string]bool)
	for _, s := range d.Streams {
		switch {
		case s.Name == "":
			return fmt.Errorf("stream with empty name")
		case names[s.Name]:
			return fmt.Errorf("stream %q declared twice", s.Name)
		case s.Glob == "":
			return fmt.Errorf("stream %q has no glob", s.Name)
		case s.Depth < 1 || s.Depth > len(d.Schema):
			return fmt.Errorf("stream %q: depth %d out of range 1..%d", s.Name, s.Depth, len(d.Schema))
		}
		names[s.Name] = true
	}
	return nil
}

// CompileSchema builds the sweepkey.Schema the definition declares.
func (d *Definition) CompileSchema() (*sweepkey.Schema, error) {
	fields := make([]sweepkey.Field, len(d.Schema))
	for i, f := range d.Schema {
		kind := sweepkey.String
		if f.Type != "" {
			var err error
			kind, err = sweepkey.ParseKind(f.Type)
			if err != nil {
				return nil, fmt.Errorf("schema field %q: %w", f.Name, err)
			}
		}
		fields[i] = sweepkey.Field{Name: f.Name, Kind: kind}
	}
	return sweepkey.NewSchema(d.Separator, fields)
}

// Discover builds every declared stream by globbing under dir, in
// declaration order. An empty dir means the definition's OutputDir.
// Any stream construction error aborts discovery.
func (d *Definition) Discover(schema *sweepkey.Schema, dir string) ([]*sweepstream.Stream, error) {
	if dir == "" {
		dir = d.OutputDir
	}
	streams := make([]*sweepstream.Stream, len(d.Streams))
	for i, sd := range d.Streams {
		st, err := sweepstream.Glob(schema, dir, sweepstream.Spec{
			Name:   sd.Name,
			Glob:   sd.Glob,
			Depth:  sd.Depth,
			Suffix: sd.Suffix,
		})
		if err != nil {
			return nil, err
		}
		streams[i] = st
	}
	return streams, nil
}
