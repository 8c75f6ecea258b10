// Package fasta contains code for parsing FASTA files.  Briefly, FASTA files
// consist of a number of named sequences that may be interrupted by newlines.
// For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
//
// The parser is strict: data before the first header, a header without a
// name, a header without sequence data, a repeated name, a non-printable byte,
// and an input without any record are all reported as errors.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/gcdist/biosimd"
	"github.com/pkg/errors"
)

const (
	bufferInitSize = 1024 * 1024 * 300 // 300 MB
)

// Encoding selects how sequence bytes are stored after parsing.
type Encoding int

const (
	// Raw keeps the bytes exactly as they appear in the file.
	Raw Encoding = iota
	// Seq8 converts A/C/G/T (either case) to 1/2/4/8 and everything else to
	// 15.  See biosimd.ASCIIToSeq8Inplace.
	Seq8
)

type opts struct {
	Enc Encoding
}

// Opt is an optional argument to New.
type Opt func(*opts)

// OptEncoding sets the storage encoding.  The default is Raw.
func OptEncoding(enc Encoding) Opt {
	return func(o *opts) {
		o.Enc = enc
	}
}

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences.
type Fasta interface {
	// Get returns a substring of the given sequence name at the given
	// coordinates, which are treated as a 0-based half-open interval
	// [start, end). Get is thread-safe.
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

// New creates a new Fasta that holds all the FASTA data from the given reader
// in memory.  The stored sequences are immutable and may be shared across
// goroutines.
func New(r io.Reader, optList ...Opt) (Fasta, error) {
	var parsedOpts opts
	for _, opt := range optList {
		opt(&parsedOpts)
	}
	f := &fasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)

	var (
		seqName string
		seq     []byte
		inSeq   bool
		lineNum int
	)
	flush := func() error {
		if !inSeq {
			return nil
		}
		if len(seq) == 0 {
			return errors.Errorf("line %d: sequence %s has no data", lineNum, seqName)
		}
		if parsedOpts.Enc == Seq8 {
			biosimd.ASCIIToSeq8Inplace(seq)
		}
		// seq is never written again, so the string view stays immutable.
		f.seqs[seqName] = unsafe.BytesToString(seq)
		f.seqNames = append(f.seqNames, seqName)
		seq = nil
		return nil
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			if err := flush(); err != nil {
				return nil, err
			}
			name := headerName(line[1:])
			if name == "" {
				return nil, errors.Errorf("line %d: sequence header has no name", lineNum)
			}
			if _, ok := f.seqs[name]; ok {
				return nil, errors.Errorf("line %d: duplicate sequence name %s", lineNum, name)
			}
			seqName = name
			inSeq = true
			continue
		}
		if !inSeq {
			return nil, errors.Errorf("line %d: sequence data before the first header", lineNum)
		}
		for i, c := range line {
			if c < 0x20 || c > 0x7e {
				return nil, errors.Errorf("line %d, column %d: non-printable byte %#x in sequence %s",
					lineNum, i+1, c, seqName)
			}
		}
		seq = append(seq, line...)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(f.seqNames) == 0 {
		return nil, errors.New("FASTA data contains no sequences")
	}
	return f, nil
}

// headerName extracts the sequence name from the text following '>'.
func headerName(header []byte) string {
	s := string(header)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	return s
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seq string) (uint64, error) {
	s, ok := f.seqs[seq]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seq)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}
