// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

// .bam seq nibble codes for the four valid bases.  Every other character maps
// to Seq8N.
const (
	Seq8A byte = 1
	Seq8C byte = 2
	Seq8G byte = 4
	Seq8T byte = 8
	Seq8N byte = 15
)

var asciiToSeq8Table [256]byte

func init() {
	for i := range asciiToSeq8Table {
		asciiToSeq8Table[i] = Seq8N
	}
	for _, b := range [...]struct {
		upper, code byte
	}{{'A', Seq8A}, {'C', Seq8C}, {'G', Seq8G}, {'T', Seq8T}} {
		asciiToSeq8Table[b.upper] = b.code
		asciiToSeq8Table[b.upper+('a'-'A')] = b.code
	}
}

// ASCIIToSeq8Inplace converts the characters of main[pos] as follows:
//   'A'/'a' -> 1
//   'C'/'c' -> 2
//   'G'/'g' -> 4
//   'T'/'t' -> 8
//   anything else -> 15
func ASCIIToSeq8Inplace(main []byte) {
	for pos, origByte := range main {
		main[pos] = asciiToSeq8Table[origByte]
	}
}
