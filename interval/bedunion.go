package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// BEDUnion is a per-chromosome interval-union.  Each chromosome maps to a
// length-2N endpoint sequence as described in endpoint_index.go.  A BEDUnion
// is immutable once built and may be shared across goroutines.
type BEDUnion struct {
	// nameMap is a chromosome-keyed map with disjoint-interval-set values.
	// A chromosome mentioned only by empty intervals maps to an empty,
	// non-nil slice.
	nameMap map[string][]PosType
}

// unionBuilder collects entries in any order and produces a BEDUnion.
type unionBuilder struct {
	byChr map[string][]Entry
}

func newUnionBuilder() *unionBuilder {
	return &unionBuilder{byChr: make(map[string][]Entry)}
}

func (b *unionBuilder) add(e Entry) error {
	if e.ChrName == "" {
		return fmt.Errorf("interval: empty chromosome name")
	}
	if e.Start0 < 0 {
		return fmt.Errorf("interval: negative start coordinate %d on %s", e.Start0, e.ChrName)
	}
	if e.End < e.Start0 || e.End >= PosTypeMax {
		return fmt.Errorf("interval: invalid coordinate pair [%d, %d) on %s", e.Start0, e.End, e.ChrName)
	}
	b.byChr[e.ChrName] = append(b.byChr[e.ChrName], e)
	return nil
}

// build sorts each chromosome's entries and merges touching and overlapping
// ones.  Empty intervals are dropped.
func (b *unionBuilder) build() BEDUnion {
	u := BEDUnion{nameMap: make(map[string][]PosType, len(b.byChr))}
	for chr, entries := range b.byChr {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Start0 != entries[j].Start0 {
				return entries[i].Start0 < entries[j].Start0
			}
			return entries[i].End < entries[j].End
		})
		endpoints := []PosType{}
		for _, e := range entries {
			if e.End == e.Start0 {
				continue
			}
			n := len(endpoints)
			if n > 0 && e.Start0 <= endpoints[n-1] {
				if e.End > endpoints[n-1] {
					endpoints[n-1] = e.End
				}
				continue
			}
			endpoints = append(endpoints, e.Start0, e.End)
		}
		u.nameMap[chr] = endpoints
	}
	return u
}

// NewBEDUnion loads the intervals from an interval-BED, merging
// touching/overlapping intervals and eliminating empty ones in the process.
// Lines need not be sorted.  Blank lines and "#", "track" and "browser"
// header lines are skipped; columns past the third are ignored.
func NewBEDUnion(reader io.Reader) (BEDUnion, error) {
	scanner := bufio.NewScanner(reader)
	b := newUnionBuilder()
	var tokens [3][]byte
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 || isBEDHeader(tokens[0]) {
			continue
		}
		if nToken != 3 {
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: line %d has fewer tokens than expected", lineIdx)
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: line %d: %v", lineIdx, err)
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: line %d: %v", lineIdx, err)
		}
		if start < 0 || end < start || end >= PosTypeMax {
			return BEDUnion{}, fmt.Errorf("interval.NewBEDUnion: invalid coordinate pair on line %d", lineIdx)
		}
		// tokens[0] aliases the scanner buffer; the map key needs its own copy.
		if err := b.add(Entry{ChrName: string(tokens[0]), Start0: PosType(start), End: PosType(end)}); err != nil {
			return BEDUnion{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return BEDUnion{}, err
	}
	u := b.build()
	log.Printf("BED loaded, %d base(s) covered.", u.NBases())
	return u, nil
}

func isBEDHeader(token []byte) bool {
	return token[0] == '#' || bytes.Equal(token, []byte("track")) || bytes.Equal(token, []byte("browser"))
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Paths ending in .gz are decompressed.
func NewBEDUnionFromPath(ctx context.Context, path string) (bedUnion BEDUnion, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer func() {
			if cerr := gz.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		reader = gz
	}
	return NewBEDUnion(reader)
}

// NewBEDUnionFromEntries initializes a BEDUnion from entries in any order.
func NewBEDUnionFromEntries(entries []Entry) (BEDUnion, error) {
	b := newUnionBuilder()
	for _, e := range entries {
		if err := b.add(e); err != nil {
			return BEDUnion{}, err
		}
	}
	return b.build(), nil
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, PosTypeMax - 1) is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.Start0 = 0
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[0:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1 int
	if start1, err = strconv.Atoi(start1Str); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", start1Str)
		return
	}
	var end0 int
	if end0, err = strconv.Atoi(endStr); err != nil {
		return
	}
	// end0 == PosTypeMax is rejected so that endpoint sequences never need to
	// represent it.
	if end0 < start1 || end0 >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end0)
	return
}

// EndpointsByName returns the endpoint sequence for the given chromosome, and
// whether the chromosome is mentioned at all.  The slice must not be
// modified.
func (u *BEDUnion) EndpointsByName(chrName string) ([]PosType, bool) {
	endpoints, ok := u.nameMap[chrName]
	return endpoints, ok
}

// ChrNames returns the names of all mentioned chromosomes, sorted.
func (u *BEDUnion) ChrNames() []string {
	names := make([]string, 0, len(u.nameMap))
	for name := range u.nameMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NBases returns the number of positions covered by the union.
func (u *BEDUnion) NBases() int64 {
	var n int64
	for _, endpoints := range u.nameMap {
		for i := 0; i < len(endpoints); i += 2 {
			n += int64(endpoints[i+1] - endpoints[i])
		}
	}
	return n
}

// Intersect returns the positions covered by both u and other.  Only
// chromosomes mentioned by both are mentioned in the result.
func (u *BEDUnion) Intersect(other *BEDUnion) BEDUnion {
	result := BEDUnion{nameMap: make(map[string][]PosType)}
	for chr, a := range u.nameMap {
		b, ok := other.nameMap[chr]
		if !ok {
			continue
		}
		endpoints := []PosType{}
		i, j := 0, 0
		for i < len(a) && j < len(b) {
			start, end := a[i], a[i+1]
			if b[j] > start {
				start = b[j]
			}
			if b[j+1] < end {
				end = b[j+1]
			}
			if start < end {
				endpoints = append(endpoints, start, end)
			}
			if a[i+1] < b[j+1] {
				i += 2
			} else {
				j += 2
			}
		}
		result.nameMap[chr] = endpoints
	}
	return result
}
