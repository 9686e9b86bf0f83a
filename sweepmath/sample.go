// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sweepmath summarizes samples of a statistic collected
// across sweep replicates.
package sweepmath

import (
	"fmt"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// A Sample is a set of observations of a single statistic, for
// example one assembly metric across all replicate seeds of a sweep
// point.
type Sample struct {
	// Values are the observations, sorted ascending.
	Values []float64
}

// NewSample constructs a Sample from values, which it copies and
// sorts.
func NewSample(values []float64) *Sample {
	vs := append([]float64(nil), values...)
	sort.Float64s(vs)
	return &Sample{Values: vs}
}

func (s *Sample) sample() stats.Sample {
	return stats.Sample{Xs: s.Values, Sorted: true}
}

// A Summary describes the distribution of a Sample: its mean with a
// confidence interval, plus order statistics.
type Summary struct {
	N          int
	Mean       float64
	Lo, Hi     float64 // confidence interval on the mean
	Median     float64
	Min, Max   float64
	Confidence float64

	// Warnings is a list of warnings about this summary, such as
	// the sample being too small for a meaningful interval.
	Warnings []error
}

// Summary summarizes the sample at the given confidence level.
func (s *Sample) Summary(confidence float64) Summary {
	n := len(s.Values)
	if n == 0 {
		return Summary{Confidence: confidence, Warnings: []error{fmt.Errorf("no values")}}
	}

	sample := s.sample()
	sum := Summary{
		N:          n,
		Median:     sample.Quantile(0.5),
		Min:        s.Values[0],
		Max:        s.Values[n-1],
		Confidence: confidence,
	}
	if n == 1 {
		sum.Mean = s.Values[0]
		sum.Lo, sum.Hi = s.Values[0], s.Values[0]
		sum.Warnings = []error{fmt.Errorf("need at least two values for a confidence interval")}
		return sum
	}
	sum.Mean, sum.Lo, sum.Hi = sample.MeanCI(confidence)
	return sum
}
