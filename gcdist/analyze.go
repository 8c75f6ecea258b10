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
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// LengthResult holds the merged histograms for one read length.
type LengthResult struct {
	ReadLength int
	// Windows is the number of countable windows.  Every histogram's Total()
	// equals it.
	Windows uint64
	// Hists is indexed by Kind.  Kinds that were not computed are nil.
	Hists [numKinds]Histogram
}

// Result is the outcome of Analyze.  Its histograms must not be modified.
// Input names the reference the result was computed from; Analyze leaves it
// empty.
type Result struct {
	Identifier  string
	Input       string
	Date        time.Time
	Threshold   float64
	ReadLengths []int
	Bisulfite   bool
	Parallelism int
	Contigs     []ContigStats
	// Lengths is parallel to ReadLengths.
	Lengths []LengthResult
}

// Kinds returns the statistic kinds present in r.
func (r *Result) Kinds() []Kind {
	return Kinds(r.Bisulfite)
}

// Histogram returns the histogram for the given read length and kind, or nil
// if it was not computed.
func (r *Result) Histogram(readLength int, kind Kind) Histogram {
	for i := range r.Lengths {
		if r.Lengths[i].ReadLength == readLength {
			return r.Lengths[i].Hists[kind]
		}
	}
	return nil
}

// unit is one (contig, read length) work item.
type unit struct {
	contig    int
	lengthIdx int
}

type unitResult struct {
	windows uint64
	hists   [numKinds]Histogram
}

type analyzer struct {
	ref      *Reference
	opts     Opts
	kinds    []Kind
	minValid []uint32 // parallel to opts.ReadLengths
	// scan computes one unit.  Tests may replace it.
	scan func(u unit) (unitResult, error)
	// useDense picks the accumulator layout for a unit.
	useDense func(length, nWindows int) bool
}

// Analyze computes the GC-content histograms of every window of every
// configured read length across all contigs of ref.
//
// Work is split into (contig, read length) units that run on
// opts.Parallelism goroutines, each with private histograms.  The partial
// histograms are merged in unit order once every unit has finished, so the
// result does not depend on scheduling.  If ctx is canceled, units that have
// already started run to completion, no further units start, and Analyze
// returns an error.  Any unit error likewise fails the whole run; no partial
// result is returned.
func Analyze(ctx context.Context, ref *Reference, opts Opts) (*Result, error) {
	a, err := newAnalyzer(ref, opts)
	if err != nil {
		return nil, err
	}
	return a.run(ctx)
}

func newAnalyzer(ref *Reference, opts Opts) (*analyzer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	a := &analyzer{
		ref:      ref,
		opts:     opts,
		kinds:    Kinds(opts.Bisulfite),
		minValid: make([]uint32, len(opts.ReadLengths)),
	}
	for i, l := range opts.ReadLengths {
		a.minValid[i] = minValidBases(opts.Threshold, l)
	}
	a.scan = a.scanUnit
	a.useDense = useDenseAccumulator
	return a, nil
}

func (a *analyzer) run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.E(errors.Canceled, "gcdist: analysis canceled", err)
	}
	contigs := a.ref.Contigs()
	units := make([]unit, 0, len(contigs)*len(a.opts.ReadLengths))
	for ci := range contigs {
		for li := range a.opts.ReadLengths {
			units = append(units, unit{contig: ci, lengthIdx: li})
		}
	}
	log.Printf("gcdist: scanning %d unit(s) (%d contig(s) x %d read length(s)), parallelism %d",
		len(units), len(contigs), len(a.opts.ReadLengths), a.opts.Parallelism)

	partials := make([]unitResult, len(units))
	var aborted int32
	err := traverse.Limit(a.opts.Parallelism).Each(len(units), func(i int) error {
		if atomic.LoadInt32(&aborted) != 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			atomic.StoreInt32(&aborted, 1)
			return errors.E(errors.Canceled, "gcdist: analysis canceled", err)
		}
		u := units[i]
		r, err := a.scan(u)
		if err != nil {
			atomic.StoreInt32(&aborted, 1)
			return errors.E(fmt.Sprintf("gcdist: contig %s, read length %d",
				contigs[u.contig].Name, a.opts.ReadLengths[u.lengthIdx]), err)
		}
		partials[i] = r
		log.Debug.Printf("gcdist: unit %s/%d done, %d window(s)",
			contigs[u.contig].Name, a.opts.ReadLengths[u.lengthIdx], r.windows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.E(errors.Canceled, "gcdist: analysis canceled", err)
	}
	res := a.merge(units, partials)
	log.Printf("gcdist: merged %d unit(s)", len(units))
	return res, nil
}

// merge combines the partial results in unit order.
func (a *analyzer) merge(units []unit, partials []unitResult) *Result {
	res := &Result{
		Identifier:  a.opts.Identifier,
		Date:        time.Now(),
		Threshold:   a.opts.Threshold,
		ReadLengths: a.opts.ReadLengths,
		Bisulfite:   a.opts.Bisulfite,
		Parallelism: a.opts.Parallelism,
		Contigs:     a.ref.Stats(),
		Lengths:     make([]LengthResult, len(a.opts.ReadLengths)),
	}
	for i, l := range a.opts.ReadLengths {
		res.Lengths[i].ReadLength = l
		for _, k := range a.kinds {
			res.Lengths[i].Hists[k] = Histogram{}
		}
	}
	for i, u := range units {
		lr := &res.Lengths[u.lengthIdx]
		lr.Windows += partials[i].windows
		for _, k := range a.kinds {
			lr.Hists[k].Merge(partials[i].hists[k])
		}
	}
	return res
}

// scanUnit counts every window of one contig at one read length.  The loops
// are specialized per mode to keep the bisulfite work out of the plain one.
func (a *analyzer) scanUnit(u unit) (unitResult, error) {
	c := a.ref.Contigs()[u.contig]
	length := a.opts.ReadLengths[u.lengthIdx]
	if len(c.Seq8) < length {
		return unitResult{}, nil
	}
	minValid := a.minValid[u.lengthIdx]
	acc := newAccumulator(length, a.useDense(length, len(c.Seq8)-length+1), a.kinds)
	s := NewScanner(c.Name, c.Seq8, length)
	var windows uint64
	if a.opts.Bisulfite {
		for s.Scan() {
			counts := s.Counts()
			if counts.Valid() < minValid {
				continue
			}
			windows++
			acc.add(KindCombinedGC, KindCombinedGC.Key(counts))
			acc.add(KindGvsA, CountPair{counts.G, counts.A})
			acc.add(KindCvsT, CountPair{counts.C, counts.T})
		}
	} else {
		for s.Scan() {
			counts := s.Counts()
			if counts.Valid() < minValid {
				continue
			}
			windows++
			acc.add(KindCombinedGC, KindCombinedGC.Key(counts))
		}
	}
	return unitResult{windows: windows, hists: acc.histograms()}, nil
}
