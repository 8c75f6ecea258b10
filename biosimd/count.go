// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

// Seq8Counts is a histogram over the 16 possible seq8 codes.
type Seq8Counts [16]uint32

// CountSeq8 adds the number of occurrences of each code in seq8 to counts.
// Only the low 4 bits of each byte are examined; ASCIIToSeq8Inplace() output
// always satisfies this.
func CountSeq8(counts *Seq8Counts, seq8 string) {
	for i := 0; i < len(seq8); i++ {
		counts[seq8[i]&15]++
	}
}

// ValidBases returns the number of A/C/G/T codes in counts.
func (c *Seq8Counts) ValidBases() uint32 {
	return c[Seq8A] + c[Seq8C] + c[Seq8G] + c[Seq8T]
}
