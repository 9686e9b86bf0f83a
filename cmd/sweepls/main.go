// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Sweepls lists the streams a sweep definition discovers, without
// running any aggregation. It is the companion to sweepstat -echo:
// echo validates the joined tuples, sweepls validates discovery.
//
// For each declared stream it prints the stream's name, depth, file
// count, and distinct key count, then a file total per depth. With
// -k it also lists every key. With -join it combines the streams and
// prints each join step and the final tuple count.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/metasweep/sweep/sweepdef"
	"github.com/metasweep/sweep/sweepstream"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: sweepls [options]

sweepls lists the streams a sweep definition discovers, without
running any aggregation.
`)
	flag.PrintDefaults()
}

var (
	flagConfig = flag.String("config", "sweep.yaml", "read the sweep definition from `file`")
	flagDir    = flag.String("dir", "", "discover stream files under `dir` instead of the definition's output_dir")
	flagKeys   = flag.Bool("k", false, "list every key of every stream")
	flagJoin   = flag.Bool("join", false, "also combine the streams and print each join step")
)

func main() {
	log.SetPrefix("sweepls: ")
	log.SetFlags(0)

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		usage()
		os.Exit(2)
	}

	def, err := sweepdef.Load(*flagConfig)
	if err != nil {
		log.Fatal(err)
	}
	schema, err := def.CompileSchema()
	if err != nil {
		log.Fatal(err)
	}

	streams, err := def.Discover(schema, *flagDir)
	if err != nil {
		log.Fatal(err)
	}
	files := make(map[int]int)
	var depths []int
	for _, st := range streams {
		fmt.Printf("%s\tdepth %d\t%d files\t%d keys\n", st.Name(), st.Depth(), st.NumFiles(), st.NumKeys())
		if *flagKeys {
			for _, k := range st.Keys() {
				fmt.Printf("\t%s\n", k)
			}
		}
		if _, ok := files[st.Depth()]; !ok {
			depths = append(depths, st.Depth())
		}
		files[st.Depth()] += st.NumFiles()
	}
	sort.Ints(depths)
	for _, d := range depths {
		fmt.Printf("depth %d\t%d files\n", d, files[d])
	}

	if !*flagJoin {
		return
	}
	joined, notes, err := sweepstream.Combine(streams)
	if err != nil {
		log.Fatal(err)
	}
	for _, note := range notes {
		fmt.Println(note)
	}
	fmt.Printf("%d tuples\n", joined.NumItems())
}
