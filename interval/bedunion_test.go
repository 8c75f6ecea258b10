package interval

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const testBED = `track name=targets
# unsorted, overlapping and touching intervals
chr2	100	200
chr1	2489165	2489273
chr1	2488104	2488172
chr1	2489200	2489300	extra	columns
chr1	2489300	2489310

chr3	50	50
`

func TestNewBEDUnion(t *testing.T) {
	u, err := NewBEDUnion(strings.NewReader(testBED))
	assert.NoError(t, err)
	want := map[string][]PosType{
		"chr1": {2488104, 2488172, 2489165, 2489310},
		"chr2": {100, 200},
		"chr3": {},
	}
	if !reflect.DeepEqual(u.nameMap, want) {
		t.Errorf("wanted: %v  got: %v", want, u.nameMap)
	}
	expect.EQ(t, u.ChrNames(), []string{"chr1", "chr2", "chr3"})
	expect.EQ(t, u.NBases(), int64(68+145+100))

	endpoints, ok := u.EndpointsByName("chr3")
	expect.EQ(t, ok, true)
	expect.EQ(t, len(endpoints), 0)
	_, ok = u.EndpointsByName("chrX")
	expect.EQ(t, ok, false)
}

func TestNewBEDUnionErrors(t *testing.T) {
	for _, bed := range []string{
		"chr1\t100\n",
		"chr1\tx\t200\n",
		"chr1\t100\t50\n",
		"chr1\t-1\t50\n",
		"chr1\t0\t2147483647\n",
	} {
		_, err := NewBEDUnion(strings.NewReader(bed))
		expect.NotNil(t, err, bed)
	}
}

func TestNewBEDUnionFromPath(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("chr1\t10\t20\nchr1\t15\t30\n"))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	path := filepath.Join(tmpdir, "targets.bed.gz")
	assert.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0600))

	u, err := NewBEDUnionFromPath(context.Background(), path)
	assert.NoError(t, err)
	endpoints, _ := u.EndpointsByName("chr1")
	expect.EQ(t, endpoints, []PosType{10, 30})

	_, err = NewBEDUnionFromPath(context.Background(), filepath.Join(tmpdir, "missing.bed"))
	expect.NotNil(t, err)
}

func TestUnionScanner(t *testing.T) {
	us := NewUnionScanner([]PosType{5, 17, 20, 25})
	var start, end PosType
	var got [][2]PosType
	for us.Scan(&start, &end, 22) {
		got = append(got, [2]PosType{start, end})
	}
	expect.EQ(t, got, [][2]PosType{{5, 17}, {20, 22}})
	got = nil
	for us.Scan(&start, &end, 30) {
		got = append(got, [2]PosType{start, end})
	}
	expect.EQ(t, got, [][2]PosType{{22, 25}})

	empty := NewUnionScanner(nil)
	expect.EQ(t, empty.Scan(&start, &end, 100), false)
}

func TestIntersect(t *testing.T) {
	a, err := NewBEDUnionFromEntries([]Entry{{"chr1", 0, 10}, {"chr1", 20, 30}, {"chr2", 0, 5}})
	assert.NoError(t, err)
	region, err := ParseRegionString("chr1:6-25")
	assert.NoError(t, err)
	b, err := NewBEDUnionFromEntries([]Entry{region})
	assert.NoError(t, err)
	c := a.Intersect(&b)
	expect.EQ(t, c.ChrNames(), []string{"chr1"})
	expect.EQ(t, c.NBases(), int64(10))
	endpoints, _ := c.EndpointsByName("chr1")
	expect.EQ(t, endpoints, []PosType{5, 10, 20, 25})

	// Intervals that merely touch do not intersect.
	d, err := NewBEDUnionFromEntries([]Entry{{"chr1", 10, 20}})
	assert.NoError(t, err)
	e := a.Intersect(&d)
	expect.EQ(t, e.ChrNames(), []string{"chr1"})
	expect.EQ(t, e.NBases(), int64(0))
}

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region  string
		chrName string
		start0  PosType
		end     PosType
	}{
		{"chr1:1-1000", "chr1", 0, 1000},
		{"chr1:1,001-2,000", "chr1", 1000, 2000},
		{"chr1:1000", "chr1", 999, 1000},
		{"chr1:5-5", "chr1", 4, 5},
		{"chr1", "chr1", 0, PosTypeMax - 1},
		{"HLA-A*01:01:01:01", "HLA-A*01:01:01", 0, 1},
	}
	for _, tt := range tests {
		result, err := ParseRegionString(tt.region)
		expect.NoError(t, err, tt.region)
		expect.EQ(t, result.ChrName, tt.chrName)
		expect.EQ(t, result.Start0, tt.start0)
		expect.EQ(t, result.End, tt.end)
	}
	for _, region := range []string{"", ":1-5", "chr1:0", "chr1:10-5", "chr1:a-b"} {
		_, err := ParseRegionString(region)
		expect.NotNil(t, err, region)
	}
}
