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
	"sort"
)

// Kind identifies a per-window statistic.
type Kind int

const (
	// KindCombinedGC keys windows by (G+C, valid-(G+C)).
	KindCombinedGC Kind = iota
	// KindGvsA keys windows by (G, A).  Bisulfite mode only.
	KindGvsA
	// KindCvsT keys windows by (C, T).  Bisulfite mode only.
	KindCvsT

	numKinds = 3
)

var kindNames = [numKinds]string{"combined_gc", "g_vs_a", "c_vs_t"}

// String returns the name used for k in reports.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns the statistic kinds computed in the given mode, in report
// order.
func Kinds(bisulfite bool) []Kind {
	if bisulfite {
		return []Kind{KindCombinedGC, KindGvsA, KindCvsT}
	}
	return []Kind{KindCombinedGC}
}

// CountPair is a histogram key.
type CountPair struct {
	X, Y uint32
}

// Key returns the pair that a window with counts c contributes to the
// histogram of kind k.
func (k Kind) Key(c BaseCounts) CountPair {
	switch k {
	case KindCombinedGC:
		gc := c.GC()
		return CountPair{gc, c.Valid() - gc}
	case KindGvsA:
		return CountPair{c.G, c.A}
	case KindCvsT:
		return CountPair{c.C, c.T}
	}
	panic(k)
}

func (p CountPair) less(q CountPair) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

// Histogram maps a CountPair to the number of windows that produced it.
type Histogram map[CountPair]uint64

// Add adds n to the frequency of key.
func (h Histogram) Add(key CountPair, n uint64) {
	h[key] += n
}

// Merge adds every frequency in other to h.  Merging is commutative and
// associative.
func (h Histogram) Merge(other Histogram) {
	for key, n := range other {
		h[key] += n
	}
}

// Total returns the sum of all frequencies.
func (h Histogram) Total() uint64 {
	var total uint64
	for _, n := range h {
		total += n
	}
	return total
}

// HistEntry is one (key, frequency) element of a Histogram.
type HistEntry struct {
	Key  CountPair
	Freq uint64
}

// Entries returns the contents of h sorted by key.
func (h Histogram) Entries() []HistEntry {
	entries := make([]HistEntry, 0, len(h))
	for key, n := range h {
		entries = append(entries, HistEntry{key, n})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.less(entries[j].Key) })
	return entries
}

// maxDenseLength is the largest window length for which an accumulator may
// use a dense (length+1)^2 array per kind.
const maxDenseLength = 512

// denseFillRatio limits the dense layout to units with at least
// (length+1)^2/denseFillRatio windows.  Smaller units use a Histogram.
const denseFillRatio = 16

// useDenseAccumulator reports whether a unit of nWindows windows of the given
// length should use the dense layout.
func useDenseAccumulator(length, nWindows int) bool {
	if length > maxDenseLength {
		return false
	}
	cells := (length + 1) * (length + 1)
	return nWindows*denseFillRatio >= cells
}

// accumulator collects the histograms for one (contig, read length) unit.
// Every key component is at most length, so the dense layout is an array
// indexed by x*(length+1)+y.
type accumulator struct {
	length int
	dense  [numKinds][]uint64
	sparse [numKinds]Histogram
}

func newAccumulator(length int, dense bool, kinds []Kind) *accumulator {
	a := &accumulator{length: length}
	for _, k := range kinds {
		if dense {
			a.dense[k] = make([]uint64, (length+1)*(length+1))
		} else {
			a.sparse[k] = Histogram{}
		}
	}
	return a
}

func (a *accumulator) add(k Kind, key CountPair) {
	if d := a.dense[k]; d != nil {
		d[int(key.X)*(a.length+1)+int(key.Y)]++
		return
	}
	a.sparse[k][key]++
}

// histograms converts the accumulated counts to Histograms.  Kinds that were
// not requested are nil.
func (a *accumulator) histograms() [numKinds]Histogram {
	var out [numKinds]Histogram
	stride := a.length + 1
	for k := range out {
		if a.sparse[k] != nil {
			out[k] = a.sparse[k]
			continue
		}
		d := a.dense[k]
		if d == nil {
			continue
		}
		h := Histogram{}
		for i, n := range d {
			if n != 0 {
				h[CountPair{uint32(i / stride), uint32(i % stride)}] = n
			}
		}
		out[k] = h
	}
	return out
}
