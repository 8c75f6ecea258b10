package fasta_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/grailbio/gcdist/encoding/fasta"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

var fastaData = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\n" + "ACGT\n"

func TestGet(t *testing.T) {
	tests := []struct {
		seq     string
		start   uint64
		end     uint64
		want    string
		wantErr bool
	}{
		{"seq1", 1, 2, "C", false},
		{"seq1", 1, 6, "CGTAC", false},
		{"seq1", 0, 12, "ACGTACGTACGT", false},
		{"seq1", 10, 12, "GT", false},
		{"seq2", 0, 8, "ACGTACGT", false},
		{"seq2", 2, 5, "GTA", false},
		{"seq0", 0, 1, "", true},
		{"seq1", 10, 13, "", true},
		{"seq1", 4, 3, "", true},
	}
	fa, err := fasta.New(strings.NewReader(fastaData))
	assert.NoError(t, err)
	for _, tt := range tests {
		got, err := fa.Get(tt.seq, tt.start, tt.end)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s[%d,%d): unexpected error state: %v", tt.seq, tt.start, tt.end, err)
		}
		if got != tt.want {
			t.Errorf("unexpected sequence: want %s, got %s", tt.want, got)
		}
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		seq     string
		want    uint64
		wantErr bool
	}{
		{"seq1", 12, false},
		{"seq2", 8, false},
		{"seq0", 0, true},
	}
	fa, err := fasta.New(strings.NewReader(fastaData))
	assert.NoError(t, err)
	for _, tt := range tests {
		got, err := fa.Len(tt.seq)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: unexpected error state: %v", tt.seq, err)
		}
		if got != tt.want {
			t.Errorf("unexpected length: want %v, got %v", tt.want, got)
		}
	}
}

func TestSeqNames(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">z\nA\n>a\nC\n>m\tdescription\nG\n"))
	assert.NoError(t, err)
	want := []string{"z", "a", "m"}
	if got := fa.SeqNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEncoding(t *testing.T) {
	data := ">s\nacgtNx\r\nRT\n"
	tests := []struct {
		enc  fasta.Encoding
		want string
	}{
		{fasta.Raw, "acgtNxRT"},
		{fasta.Seq8, "\x01\x02\x04\x08\x0f\x0f\x0f\x08"},
	}
	for _, tt := range tests {
		fa, err := fasta.New(strings.NewReader(data), fasta.OptEncoding(tt.enc))
		assert.NoError(t, err)
		got, err := fa.Get("s", 0, 8)
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want, "encoding %d", tt.enc)
	}
}

func TestBlankLines(t *testing.T) {
	fa, err := fasta.New(strings.NewReader("\n>s\n\nAC\n\nGT\n\n"))
	assert.NoError(t, err)
	n, err := fa.Len("s")
	assert.NoError(t, err)
	expect.EQ(t, n, uint64(4))
}

func TestMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
		re   string
	}{
		{"empty", "", "no sequences"},
		{"onlyBlank", "\n\n", "no sequences"},
		{"dataBeforeHeader", "ACGT\n>s\nACGT\n", "before the first header"},
		{"noName", ">\nACGT\n", "no name"},
		{"noData", ">s1\n>s2\nACGT\n", "s1 has no data"},
		{"noDataAtEnd", ">s1\nACGT\n>s2\n", "s2 has no data"},
		{"duplicate", ">s\nAC\n>s\nGT\n", "duplicate sequence name s"},
		{"nonPrintable", ">s\nAC\x01GT\n", "non-printable"},
		{"highBit", ">s\nAC\xffGT\n", "non-printable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fasta.New(strings.NewReader(tt.data))
			expect.Regexp(t, err, tt.re)
		})
	}
}
