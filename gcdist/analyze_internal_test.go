package gcdist

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/gcdist/biosimd"
	"github.com/grailbio/gcdist/interval"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestMinValidBases(t *testing.T) {
	tests := []struct {
		threshold float64
		length    int
		want      uint32
	}{
		{0.8, 4, 4},
		{0.8, 5, 4},
		{0.8, 10, 8},
		{0.7, 10, 7},
		{0.6, 10, 6},
		{0, 100, 0},
		{1, 100, 100},
		{0.8, 50, 40},
		{0.8, 75, 60},
		{0.3, 10, 3},
	}
	for _, tt := range tests {
		got := minValidBases(tt.threshold, tt.length)
		expect.EQ(t, got, tt.want, "threshold %v length %d", tt.threshold, tt.length)
	}
	// The result agrees with the direct proportion test at every count.
	for l := 1; l <= 300; l++ {
		for _, th := range []float64{0.1, 0.3, 0.7, 0.8, 0.9, 0.95, 0.99} {
			mv := minValidBases(th, l)
			for v := 0; v <= l; v++ {
				expect.EQ(t, uint32(v) >= mv, float64(v)/float64(l) >= th, "l=%d th=%v v=%d", l, th, v)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	opts := DefaultOpts
	opts.ReadLengths = []int{300, 50, 50, 100}
	assert.NoError(t, opts.validate())
	expect.EQ(t, opts.ReadLengths, []int{50, 100, 300})
	expect.EQ(t, opts.Parallelism > 0, true)
}

func TestAccumulatorDenseMatchesSparse(t *testing.T) {
	kinds := Kinds(true)
	dense := newAccumulator(10, true, kinds)
	sparse := newAccumulator(10, false, kinds)
	for i := uint32(0); i < 50; i++ {
		for _, k := range kinds {
			key := CountPair{i % 7, i % 4}
			dense.add(k, key)
			sparse.add(k, key)
		}
	}
	dh, sh := dense.histograms(), sparse.histograms()
	for _, k := range kinds {
		expect.EQ(t, dh[k], sh[k])
		expect.EQ(t, dh[k].Total(), uint64(50))
	}
	plain := newAccumulator(10, true, Kinds(false)).histograms()
	expect.EQ(t, plain[KindGvsA] == nil, true)
	expect.EQ(t, plain[KindCombinedGC], Histogram{})
}

func TestUseDenseAccumulator(t *testing.T) {
	tests := []struct {
		length, nWindows int
		want             bool
	}{
		{300, 1, false},
		{300, 5662, false},
		{300, 5663, true},
		{300, 10000000, true},
		{4, 2, true},
		{maxDenseLength + 1, 100000000, false},
	}
	for _, tt := range tests {
		expect.EQ(t, useDenseAccumulator(tt.length, tt.nWindows), tt.want, "length %d windows %d", tt.length, tt.nWindows)
	}
}

func TestScanUnitLayoutsAgree(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	const alphabet = "ACGTacgtNN"
	var contigs []Contig
	for i, n := range []int{5, 60, 3000} {
		b := make([]byte, n)
		for j := range b {
			b[j] = alphabet[r.Intn(len(alphabet))]
		}
		biosimd.ASCIIToSeq8Inplace(b)
		contigs = append(contigs, Contig{Name: fmt.Sprintf("c%d", i), Seq8: string(b)})
	}
	ref, err := NewReference(contigs)
	assert.NoError(t, err)
	for _, bisulfite := range []bool{false, true} {
		opts := DefaultOpts
		opts.ReadLengths = []int{4, 50, 100}
		opts.Threshold = 0.5
		opts.Bisulfite = bisulfite
		dense, err := newAnalyzer(ref, opts)
		assert.NoError(t, err)
		dense.useDense = func(int, int) bool { return true }
		sparse, err := newAnalyzer(ref, opts)
		assert.NoError(t, err)
		sparse.useDense = func(int, int) bool { return false }
		for ci := range contigs {
			for li := range opts.ReadLengths {
				u := unit{contig: ci, lengthIdx: li}
				dr, err := dense.scanUnit(u)
				assert.NoError(t, err)
				sr, err := sparse.scanUnit(u)
				assert.NoError(t, err)
				expect.EQ(t, dr.windows, sr.windows, "unit %+v", u)
				for _, k := range dense.kinds {
					expect.EQ(t, dr.hists[k], sr.hists[k], "unit %+v kind %v", u, k)
				}
			}
		}
	}
}

func TestScanUnitShortContig(t *testing.T) {
	ref, err := NewReference([]Contig{{Name: "short", Seq8: "\x01\x02\x04"}})
	assert.NoError(t, err)
	opts := DefaultOpts
	opts.ReadLengths = []int{4, 300}
	a, err := newAnalyzer(ref, opts)
	assert.NoError(t, err)
	a.useDense = func(length, nWindows int) bool {
		t.Errorf("no accumulator needed for a contig shorter than %d", length)
		return true
	}
	for li := range opts.ReadLengths {
		r, err := a.scanUnit(unit{contig: 0, lengthIdx: li})
		assert.NoError(t, err)
		expect.EQ(t, r.windows, uint64(0))
	}
	res, err := a.run(context.Background())
	assert.NoError(t, err)
	for _, lr := range res.Lengths {
		for _, k := range a.kinds {
			expect.EQ(t, lr.Hists[k], Histogram{})
		}
	}
}

func TestUnmatchedTargets(t *testing.T) {
	targets, err := interval.NewBEDUnionFromEntries([]interval.Entry{
		{ChrName: "chr1", Start0: 0, End: 10},
		{ChrName: "chrUn", Start0: 5, End: 6},
		{ChrName: "chrM", Start0: 0, End: 1},
		{ChrName: "chrEmpty", Start0: 3, End: 3},
	})
	assert.NoError(t, err)
	expect.EQ(t, unmatchedTargets(&targets, []string{"chr1", "chr2"}), []string{"chrM", "chrUn"})
	expect.EQ(t, len(unmatchedTargets(&targets, []string{"chr1", "chrM", "chrUn"})), 0)
}

func testReference(t *testing.T, n int) *Reference {
	var contigs []Contig
	for i := 0; i < n; i++ {
		contigs = append(contigs, Contig{Name: fmt.Sprintf("c%d", i), Seq8: "\x01\x02\x04\x08\x01\x02\x04\x08"})
	}
	ref, err := NewReference(contigs)
	assert.NoError(t, err)
	return ref
}

func TestUnitFailureAbortsRun(t *testing.T) {
	ref := testReference(t, 20)
	opts := DefaultOpts
	opts.ReadLengths = []int{2, 4}
	opts.Parallelism = 1
	a, err := newAnalyzer(ref, opts)
	assert.NoError(t, err)
	var started int32
	a.scan = func(u unit) (unitResult, error) {
		atomic.AddInt32(&started, 1)
		if u.contig == 3 && u.lengthIdx == 1 {
			return unitResult{}, fmt.Errorf("scan failed")
		}
		return a.scanUnit(u)
	}
	res, err := a.run(context.Background())
	expect.EQ(t, res == nil, true)
	expect.Regexp(t, err, "contig c3, read length 4.*scan failed")
	// With a single worker, no unit starts after the failing one.
	expect.EQ(t, atomic.LoadInt32(&started), int32(8))
}

func TestCancelStopsNewUnits(t *testing.T) {
	ref := testReference(t, 10)
	opts := DefaultOpts
	opts.ReadLengths = []int{4}
	opts.Parallelism = 1
	a, err := newAnalyzer(ref, opts)
	assert.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	var completed int32
	a.scan = func(u unit) (unitResult, error) {
		if u.contig == 2 {
			cancel()
		}
		r, err := a.scanUnit(u)
		atomic.AddInt32(&completed, 1)
		return r, err
	}
	res, err := a.run(ctx)
	expect.EQ(t, res == nil, true)
	expect.EQ(t, errors.Is(errors.Canceled, err), true)
	// The unit in flight when the cancellation arrived still completed.
	expect.EQ(t, atomic.LoadInt32(&completed), int32(3))
}

func TestDuplicateContig(t *testing.T) {
	_, err := NewReference([]Contig{{Name: "a", Seq8: "\x01"}, {Name: "a", Seq8: "\x02"}})
	expect.EQ(t, errors.Is(errors.Invalid, err), true)
}
