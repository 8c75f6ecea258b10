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
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"blainsmith.com/go/seahash"
)

// ReportEntry is one histogram element in a report.
type ReportEntry struct {
	// Pair is the (x, y) key.
	Pair [2]uint32 `json:"pair"`
	// Count is the number of windows with this key.
	Count uint64 `json:"count"`
}

// LengthReport holds the histograms for one read length.
type LengthReport struct {
	ReadLength int    `json:"read_length"`
	Windows    uint64 `json:"windows"`
	// Histograms is keyed by Kind.String().
	Histograms map[string][]ReportEntry `json:"histograms"`
}

// Report is the JSON document written for a Result.
type Report struct {
	Identifier  string         `json:"identifier"`
	Date        string         `json:"date"`
	Input       string         `json:"input,omitempty"`
	Threshold   float64        `json:"threshold"`
	ReadLengths []int          `json:"read_lengths"`
	Bisulfite   bool           `json:"bisulfite"`
	Parallelism int            `json:"parallelism"`
	Checksum    string         `json:"checksum"`
	Contigs     []ContigStats  `json:"contigs"`
	Results     []LengthReport `json:"results"`
}

func reportEntries(h Histogram) []ReportEntry {
	entries := h.Entries()
	out := make([]ReportEntry, len(entries))
	for i, e := range entries {
		out[i] = ReportEntry{Pair: [2]uint32{e.Key.X, e.Key.Y}, Count: e.Freq}
	}
	return out
}

// NewReport converts r to a Report.  Histogram entries are sorted by key.
func NewReport(r *Result) Report {
	rep := Report{
		Identifier:  r.Identifier,
		Date:        r.Date.Format(time.RFC1123Z),
		Input:       r.Input,
		Threshold:   r.Threshold,
		ReadLengths: r.ReadLengths,
		Bisulfite:   r.Bisulfite,
		Parallelism: r.Parallelism,
		Checksum:    fmt.Sprintf("%016x", Checksum(r)),
		Contigs:     r.Contigs,
		Results:     make([]LengthReport, len(r.Lengths)),
	}
	for i, lr := range r.Lengths {
		lrep := LengthReport{
			ReadLength: lr.ReadLength,
			Windows:    lr.Windows,
			Histograms: make(map[string][]ReportEntry),
		}
		for _, k := range r.Kinds() {
			lrep.Histograms[k.String()] = reportEntries(lr.Hists[k])
		}
		rep.Results[i] = lrep
	}
	return rep
}

// WriteJSON writes rep as indented JSON.
func (rep Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// Checksum returns a seahash fingerprint of the histograms in r.  It covers
// the read lengths, the kinds, and every (key, frequency) pair in sorted
// order, and is therefore independent of parallelism and scheduling.
func Checksum(r *Result) uint64 {
	h := seahash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:]) // nolint: errcheck
	}
	for _, lr := range r.Lengths {
		put(uint64(lr.ReadLength))
		put(lr.Windows)
		for _, k := range r.Kinds() {
			hist := lr.Hists[k]
			put(uint64(k))
			put(uint64(len(hist)))
			for _, e := range hist.Entries() {
				put(uint64(e.Key.X)<<32 | uint64(e.Key.Y))
				put(e.Freq)
			}
		}
	}
	return h.Sum64()
}
