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
	"io"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/gcdist/biosimd"
	"github.com/grailbio/gcdist/encoding/fasta"
	"github.com/grailbio/gcdist/interval"
)

// Contig is one reference sequence.  Seq8 uses the biosimd seq8 encoding;
// it must not be modified.
type Contig struct {
	Name string
	Seq8 string
}

// ContigStats summarizes a loaded contig.
type ContigStats struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
	// ValidBases is the number of A/C/G/T bases, after target masking.
	ValidBases int `json:"valid_bases"`
	// Fingerprint is a farmhash of the masked seq8 sequence, in hex.
	Fingerprint string `json:"fingerprint"`
}

// Reference is a read-only contig store.  It is safe to share across
// goroutines.
type Reference struct {
	contigs []Contig
	stats   []ContigStats
}

// NewReference creates a Reference from seq8-encoded contigs, which keep
// their order.  Names must be unique.
func NewReference(contigs []Contig) (*Reference, error) {
	ref := &Reference{
		contigs: contigs,
		stats:   make([]ContigStats, len(contigs)),
	}
	seen := make(map[string]bool, len(contigs))
	for i, c := range contigs {
		if seen[c.Name] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("gcdist: duplicate contig %s", c.Name))
		}
		seen[c.Name] = true
		var counts biosimd.Seq8Counts
		biosimd.CountSeq8(&counts, c.Seq8)
		ref.stats[i] = ContigStats{
			Name:        c.Name,
			Length:      len(c.Seq8),
			ValidBases:  int(counts.ValidBases()),
			Fingerprint: fmt.Sprintf("%016x", farm.Fingerprint64(gunsafe.StringToBytes(c.Seq8))),
		}
	}
	return ref, nil
}

// Contigs returns the contigs in input order.
func (r *Reference) Contigs() []Contig { return r.contigs }

// Stats returns per-contig statistics, parallel to Contigs().
func (r *Reference) Stats() []ContigStats { return r.stats }

// ReadReference parses FASTA data.  If targets is non-nil, every base outside
// it is replaced with an invalid base; contigs the targets do not mention
// become entirely invalid.
func ReadReference(r io.Reader, targets *interval.BEDUnion) (*Reference, error) {
	fa, err := fasta.New(r, fasta.OptEncoding(fasta.Seq8))
	if err != nil {
		return nil, errors.E(errors.Invalid, "gcdist: parse FASTA", err)
	}
	names := fa.SeqNames()
	contigs := make([]Contig, len(names))
	for i, name := range names {
		n, err := fa.Len(name)
		if err != nil {
			return nil, err
		}
		seq8, err := fa.Get(name, 0, n)
		if err != nil {
			return nil, err
		}
		if targets != nil {
			if n >= interval.PosTypeMax {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("gcdist: contig %s is too long for target masking", name))
			}
			endpoints, _ := targets.EndpointsByName(name)
			seq8 = maskSeq8(seq8, endpoints)
		}
		contigs[i] = Contig{Name: name, Seq8: seq8}
	}
	if targets != nil {
		if missing := unmatchedTargets(targets, names); len(missing) > 0 {
			log.Error.Printf("gcdist: %d target contig(s) not in the reference, e.g. %s", len(missing), missing[0])
		}
	}
	return NewReference(contigs)
}

// unmatchedTargets returns the sorted names of target contigs with covered
// bases that are not among names.
func unmatchedTargets(targets *interval.BEDUnion, names []string) []string {
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	var missing []string
	for _, chr := range targets.ChrNames() {
		if endpoints, _ := targets.EndpointsByName(chr); len(endpoints) > 0 && !present[chr] {
			missing = append(missing, chr)
		}
	}
	return missing
}

// maskSeq8 returns a copy of seq8 where every position outside the
// interval-union is set to biosimd.Seq8N.
func maskSeq8(seq8 string, endpoints []interval.PosType) string {
	masked := make([]byte, len(seq8))
	for i := range masked {
		masked[i] = biosimd.Seq8N
	}
	us := interval.NewUnionScanner(endpoints)
	var start, end interval.PosType
	for us.Scan(&start, &end, interval.PosType(len(seq8))) {
		copy(masked[start:end], seq8[start:end])
	}
	return gunsafe.BytesToString(masked)
}

// LoadTargets reads the target set named by opts.BedPath and opts.Region.  It
// returns nil if neither is set.
func LoadTargets(ctx context.Context, opts Opts) (*interval.BEDUnion, error) {
	var targets *interval.BEDUnion
	if opts.BedPath != "" {
		bed, err := interval.NewBEDUnionFromPath(ctx, opts.BedPath)
		if err != nil {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("gcdist: load BED %s", opts.BedPath), err)
		}
		targets = &bed
	}
	if opts.Region != "" {
		entry, err := interval.ParseRegionString(opts.Region)
		if err != nil {
			return nil, errors.E(errors.Invalid, "gcdist: parse region", err)
		}
		region, err := interval.NewBEDUnionFromEntries([]interval.Entry{entry})
		if err != nil {
			return nil, errors.E(errors.Invalid, "gcdist: parse region", err)
		}
		if targets != nil {
			region = targets.Intersect(&region)
		}
		targets = &region
	}
	if targets != nil {
		log.Printf("gcdist: targets cover %d base(s) on %d contig(s)", targets.NBases(), len(targets.ChrNames()))
	}
	return targets, nil
}

// LoadReference reads a FASTA file, which may be compressed, applying the
// target set from opts.
func LoadReference(ctx context.Context, path string, opts Opts) (ref *Reference, err error) {
	targets, err := LoadTargets(ctx, opts)
	if err != nil {
		return nil, err
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("gcdist: open %s", path), err)
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader, _ := compress.NewReader(in.Reader(ctx))
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if ref, err = ReadReference(reader, targets); err != nil {
		return nil, errors.E(fmt.Sprintf("gcdist: read %s", path), err)
	}
	var nBases int
	for _, s := range ref.stats {
		nBases += s.Length
	}
	log.Printf("gcdist: loaded %d contig(s), %d base(s) from %s", len(ref.contigs), nBases, path)
	return ref, nil
}
