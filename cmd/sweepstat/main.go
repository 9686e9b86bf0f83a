// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build cgo

// Sweepstat aggregates the output files of a parametric sweep into a
// single report.
//
// Usage:
//
//	sweepstat [options]
//
// Sweepstat reads a sweep definition (-config, default sweep.yaml)
// describing the sweep's parameter schema, its file streams, and the
// external aggregator command:
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
//
// It discovers each stream's files under the output directory,
// extracts the parameter key embedded in every file name, joins the
// streams into one tuple per sweep point, and runs the aggregator
// once per tuple with the tuple's files as arguments. The aggregator
// must print one YAML document on standard output. The documents,
// each merged with its tuple's parameters, are written as an ordered
// list to <output_dir>/all_stats.yaml (override with -o).
//
// Tuples whose aggregator fails are reported as warnings and left
// out of the report; -fail-fast aborts on the first failure instead.
// If every tuple fails, sweepstat exits with status 1.
//
// With -echo, sweepstat prints each tuple's key instead of running
// the aggregator, for validating a sweep definition:
//
//	sweepstat -config sweep.yaml -echo
//
// Additional outputs: -csv and -html render the report as a table,
// -summary seed summarizes each sweep point across its seed
// replicates, -png writes box-plot charts of each statistic against
// the -x parameter, and -store archives the report in a run database
// for later comparison:
//
//	sweepstat -config sweep.yaml -store sweeps.db
//	sweepstat -config sweep.yaml -png charts -x alpha
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/metasweep/sweep/storage/db"
	_ "github.com/metasweep/sweep/storage/db/sqlite3"
	"github.com/metasweep/sweep/sweepagg"
	"github.com/metasweep/sweep/sweepdef"
	"github.com/metasweep/sweep/sweepstream"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: sweepstat [options]\n")
	fmt.Fprintf(os.Stderr, "options:\n")
	flag.PrintDefaults()
	os.Exit(2)
}

var (
	flagConfig      = flag.String("config", "sweep.yaml", "read the sweep definition from `file`")
	flagDir         = flag.String("dir", "", "discover stream files under `dir` instead of the definition's output_dir")
	flagOut         = flag.String("o", "", "write the report to `file` (default <output_dir>/all_stats.yaml)")
	flagEcho        = flag.Bool("echo", false, "print each tuple's key instead of aggregating")
	flagParallel    = flag.Int("parallel", 0, "run up to `n` aggregators at once (default GOMAXPROCS)")
	flagFailFast    = flag.Bool("fail-fast", false, "abort on the first tuple failure")
	flagCSV         = flag.String("csv", "", "also write the report as CSV to `file`")
	flagHTML        = flag.String("html", "", "also write the report as an HTML table to `file`")
	flagSummary     = flag.String("summary", "", "print summaries varying the comma-separated `params` across each group")
	flagConfidence  = flag.Float64("confidence", 0.95, "confidence `level` for summary intervals")
	flagPNG         = flag.String("png", "", "write box-plot charts into `dir`")
	flagX           = flag.String("x", "", "chart x-axis `param` (required with -png)")
	flagY           = flag.String("y", "", "chart only the comma-separated `stats` (default every numeric statistic)")
	flagLogScale    = flag.Bool("log", false, "use a log scale on chart y axes")
	flagStore       = flag.String("store", "", "archive the report in the run database at `dsn`")
	flagStoreDriver = flag.String("store-driver", "sqlite3", "database `driver` for -store: sqlite3 or mysql")
	flagV           = flag.Bool("v", false, "print each join step and output written")
)

func main() {
	log.SetPrefix("sweepstat: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
	}

	def, err := sweepdef.Load(*flagConfig)
	if err != nil {
		log.Fatal(err)
	}
	schema, err := def.CompileSchema()
	if err != nil {
		log.Fatal(err)
	}
	dir := *flagDir
	if dir == "" {
		dir = def.OutputDir
	}

	streams, err := def.Discover(schema, dir)
	if err != nil {
		log.Fatal(err)
	}
	for _, st := range streams {
		if st.NumItems() == 0 {
			log.Printf("warning: stream %s matched no files under %s", st.Name(), dir)
		}
		if *flagV {
			log.Printf("stream %s: depth %d, %d files, %d keys", st.Name(), st.Depth(), st.NumFiles(), st.NumKeys())
		}
	}

	joined, notes, err := sweepstream.Combine(streams)
	if err != nil {
		log.Fatal(err)
	}
	for _, note := range notes {
		if *flagV || note.Stats.Dropped() > 0 {
			log.Print(note)
		}
	}

	var agg sweepagg.Aggregator
	opts := &sweepagg.Options{
		Parallel: *flagParallel,
		FailFast: *flagFailFast,
		Warn:     log.Printf,
	}
	if *flagEcho {
		agg = new(sweepagg.Echo)
		// Keys print in stream order.
		opts.Parallel = 1
	} else {
		if len(def.Aggregator) == 0 {
			log.Fatal("definition has no aggregator command; use -echo to dry-run")
		}
		agg = &sweepagg.Command{Args: def.Aggregator, Stderr: os.Stderr}
	}

	rep, err := sweepagg.Run(context.Background(), agg, joined, opts)
	if err != nil {
		log.Fatal(err)
	}
	if len(rep.Failures) > 0 && len(rep.Records) == 0 {
		log.Fatalf("all %d tuples failed", len(rep.Failures))
	}

	out := *flagOut
	if out == "" {
		out = filepath.Join(dir, "all_stats.yaml")
	}
	if err := rep.WriteFile(out); err != nil {
		log.Fatal(err)
	}
	if *flagV {
		log.Printf("wrote %d records to %s", len(rep.Records), out)
	}

	if *flagCSV != "" {
		writeTo(*flagCSV, rep.WriteCSV)
	}
	if *flagHTML != "" {
		writeTo(*flagHTML, rep.WriteHTML)
	}
	if *flagSummary != "" {
		sums, err := sweepagg.Summarize(rep.Records, strings.Split(*flagSummary, ","), *flagConfidence)
		if err != nil {
			log.Fatal(err)
		}
		if err := sweepagg.WriteSummaries(os.Stdout, sums); err != nil {
			log.Fatal(err)
		}
	}
	if *flagPNG != "" {
		if *flagX == "" {
			log.Fatal("-png requires -x")
		}
		var stats []string
		if *flagY != "" {
			stats = strings.Split(*flagY, ",")
		}
		if err := sweepagg.Chart(rep.Records, *flagX, stats, *flagPNG, *flagLogScale); err != nil {
			log.Fatal(err)
		}
	}
	if *flagStore != "" {
		if err := storeReport(rep); err != nil {
			log.Fatal(err)
		}
	}
}

// writeTo writes one optional report rendering to path.
func writeTo(path string, write func(io.Writer) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	if err := write(f); err != nil {
		f.Close()
		log.Fatalf("writing %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	if *flagV {
		log.Printf("wrote %s", path)
	}
}

// storeReport archives the report's records as one run in the
// database named by -store.
func storeReport(rep *sweepagg.Report) error {
	d, err := db.OpenSQL(*flagStoreDriver, *flagStore)
	if err != nil {
		return err
	}
	defer d.Close()

	u, err := d.NewRun(context.Background())
	if err != nil {
		return err
	}
	for _, rec := range rep.Records {
		content, err := yaml.Marshal(rec)
		if err != nil {
			u.Abort()
			return err
		}
		params := make(map[string]string, len(rec.Params))
		for _, p := range rec.Params {
			params[p.Name] = p.Value
		}
		if err := u.InsertRecord(content, params); err != nil {
			u.Abort()
			return err
		}
	}
	if err := u.Commit(); err != nil {
		return err
	}
	log.Printf("stored run %s (%d records)", u.ID, len(rep.Records))
	return nil
}
