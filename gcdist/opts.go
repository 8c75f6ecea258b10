// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gcdist

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/grailbio/base/errors"
)

// Opts configures a GC-distribution run.  Opts values are copied into the
// run; later changes by the caller have no effect on it.
type Opts struct {
	// Threshold is the minimum proportion of valid (A/C/G/T) bases a window
	// must have to be counted.  Must be in [0, 1].
	Threshold float64
	// ReadLengths are the window lengths to evaluate.  They are sorted and
	// de-duplicated before use.
	ReadLengths []int
	// Bisulfite additionally computes the g_vs_a and c_vs_t histograms.
	Bisulfite bool
	// Identifier is copied verbatim into the report.
	Identifier string
	// Parallelism is the number of worker goroutines.  0 means runtime.NumCPU().
	Parallelism int

	// BedPath, if set, restricts counting to the BED's intervals.  Bases
	// outside the intervals are treated as invalid.
	BedPath string
	// Region, if set, is a samtools-style region string with the same effect
	// as BedPath.  When both are set, their intersection is used.
	Region string

	// Prefix is the output path prefix.  Outputs are <Prefix>.json and
	// <Prefix>_dist.tsv.
	Prefix string
	// Compress gzips the outputs and appends ".gz" to their names.
	Compress bool
}

// DefaultOpts is the default configuration.
var DefaultOpts = Opts{
	Threshold:   0.8,
	ReadLengths: []int{50, 75, 100, 150, 200, 250, 300},
	Bisulfite:   true,
	Prefix:      "gcdist",
}

// maxReadLength bounds window lengths so that every per-window count fits in
// a uint32 and a window start never overflows.
const maxReadLength = math.MaxInt32

// validate resolves defaults and checks o for errors.  ReadLengths is
// replaced by a sorted, de-duplicated copy.
func (o *Opts) validate() error {
	if math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold > 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("gcdist: threshold must be in [0, 1], got %v", o.Threshold))
	}
	if len(o.ReadLengths) == 0 {
		return errors.E(errors.Invalid, "gcdist: at least one read length is required")
	}
	lengths := make([]int, 0, len(o.ReadLengths))
	for _, l := range o.ReadLengths {
		if l <= 0 || l > maxReadLength {
			return errors.E(errors.Invalid, fmt.Sprintf("gcdist: invalid read length %d", l))
		}
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)
	uniq := lengths[:1]
	for _, l := range lengths[1:] {
		if l != uniq[len(uniq)-1] {
			uniq = append(uniq, l)
		}
	}
	o.ReadLengths = uniq
	if o.Parallelism < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("gcdist: parallelism must be nonnegative, got %d", o.Parallelism))
	}
	if o.Parallelism == 0 {
		o.Parallelism = runtime.NumCPU()
	}
	return nil
}

// minValidBases returns the smallest v such that v/length >= threshold,
// evaluated in floating point the same way the countability test is stated.
func minValidBases(threshold float64, length int) uint32 {
	fl := float64(length)
	v := int(math.Ceil(threshold * fl))
	for v > 0 && float64(v-1)/fl >= threshold {
		v--
	}
	for v <= length && float64(v)/fl < threshold {
		v++
	}
	return uint32(v)
}
