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
	"io"
	"math"
	"strconv"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"gonum.org/v1/gonum/mathext"
)

// DistBins is the number of bins in the smoothed distribution output.
const DistBins = 1000

// DistColumn is one smoothed histogram.
type DistColumn struct {
	// Name is "<kind>:<read length>bp".
	Name string
	// Density has DistBins elements.  Element i is the density at
	// (i+0.5)/DistBins; the elements average to 1 unless the histogram is
	// empty, in which case they are all zero.
	Density []float64
}

// binMidpoint returns the center of bin i.
func binMidpoint(i int) float64 {
	return (float64(i) + 0.5) / DistBins
}

// Smooth converts h into a density over [0, 1].  Each key (x, y) with
// frequency n contributes n times the Beta(x+1, y+1) density, evaluated at
// the bin midpoints and normalized to sum to 1 across the bins.  The result
// is scaled so that it integrates to 1.
func Smooth(h Histogram) []float64 {
	density := make([]float64, DistBins)
	total := float64(h.Total())
	if total == 0 {
		return density
	}
	var lnX, lnY [DistBins]float64
	for i := range lnX {
		x := binMidpoint(i)
		lnX[i] = math.Log(x)
		lnY[i] = math.Log1p(-x)
	}
	var p [DistBins]float64
	// Sorted iteration keeps the floating-point sums reproducible.
	for _, e := range h.Entries() {
		a, b := float64(e.Key.X), float64(e.Key.Y)
		lbeta := mathext.Lbeta(a+1, b+1)
		var z float64
		for i := range p {
			p[i] = math.Exp(a*lnX[i] + b*lnY[i] - lbeta)
			z += p[i]
		}
		w := float64(e.Freq) / z
		for i := range p {
			density[i] += w * p[i]
		}
	}
	for i := range density {
		density[i] *= DistBins / total
	}
	return density
}

// DistColumns smooths every histogram in r, using up to parallelism
// goroutines.  Columns are ordered by read length, then kind.
func DistColumns(r *Result, parallelism int) ([]DistColumn, error) {
	var hists []Histogram
	var cols []DistColumn
	for _, lr := range r.Lengths {
		for _, k := range r.Kinds() {
			cols = append(cols, DistColumn{Name: fmt.Sprintf("%s:%dbp", k, lr.ReadLength)})
			hists = append(hists, lr.Hists[k])
		}
	}
	if parallelism <= 0 {
		parallelism = 1
	}
	err := traverse.Limit(parallelism).Each(len(cols), func(i int) error {
		cols[i].Density = Smooth(hists[i])
		return nil
	})
	return cols, err
}

// WriteDist writes the smoothed distributions of r as a TSV.  The first
// column, "gc", holds the bin midpoints; the rest are DistColumns(r).
func WriteDist(w io.Writer, r *Result, parallelism int) error {
	cols, err := DistColumns(r, parallelism)
	if err != nil {
		return err
	}
	return writeDistColumns(w, cols)
}

func writeDistColumns(w io.Writer, cols []DistColumn) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("gc")
	for _, c := range cols {
		tw.WriteString(c.Name)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i := 0; i < DistBins; i++ {
		tw.WriteString(strconv.FormatFloat(binMidpoint(i), 'g', -1, 64))
		for _, c := range cols {
			tw.WriteString(strconv.FormatFloat(c.Density[i], 'g', -1, 64))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
