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
	"github.com/grailbio/gcdist/biosimd"
)

// BaseCounts holds per-base counts for a window.  A+C+G+T+Invalid equals the
// window length.
type BaseCounts struct {
	A, C, G, T, Invalid uint32
}

// Valid returns the number of A/C/G/T bases.
func (c BaseCounts) Valid() uint32 {
	return c.A + c.C + c.G + c.T
}

// GC returns the number of G/C bases.
func (c BaseCounts) GC() uint32 {
	return c.G + c.C
}

// Window is a contiguous stretch of one contig.
type Window struct {
	Contig string
	// Start is the 0-based offset of the first base.
	Start  int
	Length int
	Counts BaseCounts
}

// Scanner enumerates every length-L window of a seq8-encoded contig, in
// order of increasing start position.  Each step updates the counts in O(1)
// by removing the base that leaves the window and adding the one that
// enters.  A Scanner cannot be restarted.
//
// Usage:
//   s := NewScanner(name, seq8, length)
//   for s.Scan() {
//     w := s.Window()
//     ...
//   }
type Scanner struct {
	contig string
	seq8   string
	length int
	// next is the start of the window the following Scan() will produce.
	next   int
	counts biosimd.Seq8Counts
}

// NewScanner creates a Scanner over seq8, which must use the encoding
// produced by biosimd.ASCIIToSeq8Inplace.  A contig shorter than length
// yields no windows.
func NewScanner(contig, seq8 string, length int) *Scanner {
	if length <= 0 {
		panic("gcdist.NewScanner: length must be positive")
	}
	return &Scanner{contig: contig, seq8: seq8, length: length}
}

// Scan advances to the next window.  It returns false once the window would
// extend past the end of the contig.
func (s *Scanner) Scan() bool {
	if s.next+s.length > len(s.seq8) {
		s.next = len(s.seq8) + 1
		return false
	}
	if s.next == 0 {
		biosimd.CountSeq8(&s.counts, s.seq8[:s.length])
	} else {
		s.counts[s.seq8[s.next-1]&15]--
		s.counts[s.seq8[s.next+s.length-1]&15]++
	}
	s.next++
	return true
}

// Counts returns the counts of the current window.
func (s *Scanner) Counts() BaseCounts {
	c := BaseCounts{
		A: s.counts[biosimd.Seq8A],
		C: s.counts[biosimd.Seq8C],
		G: s.counts[biosimd.Seq8G],
		T: s.counts[biosimd.Seq8T],
	}
	c.Invalid = uint32(s.length) - c.Valid()
	return c
}

// Window returns the current window.  It is valid only after Scan() returned
// true.
func (s *Scanner) Window() Window {
	return Window{
		Contig: s.contig,
		Start:  s.next - 1,
		Length: s.length,
		Counts: s.Counts(),
	}
}
