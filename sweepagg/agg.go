// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sweepagg drives the aggregation stage of a sweep: it runs
// an external aggregator once per joined tuple, decorates each
// aggregator document with the tuple's parameters, and collects the
// decorated documents into a report.
//
// Tuples are independent, so invocations are dispatched across a
// bounded pool of goroutines; the only synchronization point is the
// barrier before the report is assembled. One tuple's failure never
// blocks the others: it is recorded in the report's Failures and the
// run continues, unless Options.FailFast is set.
package sweepagg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/metasweep/sweep/sweepkey"
	"github.com/metasweep/sweep/sweepstream"
)

// A Doc is one parsed aggregator document: the YAML the aggregator
// printed for one tuple, decoded into plain Go values.
type Doc map[string]interface{}

// An Aggregator produces the statistics document for one joined
// tuple. Implementations must be safe for concurrent use.
type Aggregator interface {
	Aggregate(ctx context.Context, item sweepstream.Item) (Doc, error)
}

// Command invokes an external aggregation process. The process is
// run as Args[0] with Args[1:] followed by the tuple's payload file
// paths as positional arguments, and must print one YAML document on
// standard output.
type Command struct {
	// Args is the command and its fixed leading arguments.
	Args []string
	// Dir is the working directory for the command. Empty means
	// the current directory.
	Dir string
	// Stderr receives the command's standard error. If nil,
	// stderr is captured and included in invocation errors.
	Stderr io.Writer
}

// Aggregate implements Aggregator.
func (c *Command) Aggregate(ctx context.Context, item sweepstream.Item) (Doc, error) {
	if len(c.Args) == 0 {
		return nil, fmt.Errorf("no aggregator command configured")
	}
	args := append(append([]string(nil), c.Args[1:]...), item.Files...)
	cmd := exec.CommandContext(ctx, c.Args[0], args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("aggregator %s: %w%s", c.Args[0], err, stderrExcerpt(&stderr))
	}
	var doc Doc
	if err := yaml.Unmarshal(stdout.Bytes(), &doc); err != nil {
		return nil, fmt.Errorf("aggregator %s: parsing output: %w", c.Args[0], err)
	}
	return doc, nil
}

func stderrExcerpt(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return ""
	}
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return ": " + s
}

// Echo is the debug aggregator: it prints each tuple's key instead
// of aggregating, and yields an empty document, so a dry run
// produces a report of bare parameter records. Writes to W are
// serialized, but with parallelism above one the print order is
// unspecified.
type Echo struct {
	// W receives the keys. If nil, standard output is used.
	W io.Writer

	mu sync.Mutex
}

// Aggregate implements Aggregator.
func (e *Echo) Aggregate(ctx context.Context, item sweepstream.Item) (Doc, error) {
	w := e.W
	if w == nil {
		w = os.Stdout
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintln(w, item.Key)
	return Doc{}, nil
}

// checkDoc rejects documents that cannot be merged with a tuple's
// parameters. The record serialization reserves the top-level
// "parameters" key for the tuple's own key, so an aggregator
// statistic of that name has nowhere to go.
func checkDoc(doc Doc) error {
	if _, ok := doc["parameters"]; ok {
		return fmt.Errorf("output document has reserved key %q", "parameters")
	}
	return nil
}

// A Failure records one tuple whose aggregation failed.
type Failure struct {
	Key sweepkey.Key
	Err error
}

// Options configures a Run.
type Options struct {
	// Parallel bounds concurrent aggregator invocations. Zero or
	// less means GOMAXPROCS.
	Parallel int
	// FailFast aborts the run on the first tuple failure instead
	// of recording it and continuing.
	FailFast bool
	// Warn is called with a printf-style message for each
	// recorded failure. Nil means discard.
	Warn func(format string, args ...interface{})
}

// Run aggregates every item of the joined stream st and returns the
// assembled report. Records appear in the stream's deterministic
// emission order. Failed tuples are excluded from Records and
// appended, in the same order, to Failures.
func Run(ctx context.Context, agg Aggregator, st *sweepstream.Stream, opts *Options) (*Report, error) {
	if opts == nil {
		opts = &Options{}
	}
	warn := opts.Warn
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}

	items := st.All()
	docs := make([]Doc, len(items))
	errs := make([]error, len(items))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The work is as parallel as the aggregator processes are
	// independent, which is completely; a simple limit keeps the
	// process count bounded.
	limitN := opts.Parallel
	if limitN <= 0 {
		limitN = runtime.GOMAXPROCS(0)
	}
	limit := make(chan struct{}, limitN)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, it := range items {
		wg.Add(1)
		go func(i int, it sweepstream.Item) {
			defer wg.Done()
			limit <- struct{}{}
			defer func() { <-limit }()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			doc, err := agg.Aggregate(ctx, it)
			if err == nil {
				err = checkDoc(doc)
			}
			if err != nil {
				errs[i] = err
				if opts.FailFast {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("aggregating %s: %w", it.Key, err)
					}
					mu.Unlock()
					cancel()
				}
				return
			}
			docs[i] = doc
		}(i, it)
	}
	wg.Wait()

	if opts.FailFast && firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := new(Report)
	for i, it := range items {
		if err := errs[i]; err != nil {
			warn("aggregating %s: %v", it.Key, err)
			rep.Failures = append(rep.Failures, Failure{it.Key, err})
			continue
		}
		rep.Records = append(rep.Records, Record{Params: it.Key.Params(), Stats: docs[i]})
	}
	return rep, nil
}
