package main

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/gcdist/gcdist"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"v.io/x/lib/cmdline"
)

func TestParseReadLengths(t *testing.T) {
	lengths, err := parseReadLengths("100, 50,,150")
	assert.NoError(t, err)
	expect.EQ(t, lengths, []int{100, 50, 150})
	expect.EQ(t, formatReadLengths(gcdist.DefaultOpts.ReadLengths), "50,75,100,150,200,250,300")
	_, err = parseReadLengths("100,x")
	expect.Regexp(t, err, "invalid read length")
}

func TestGCDistCommand(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	faPath := filepath.Join(tmpdir, "ref.fa")
	assert.NoError(t, ioutil.WriteFile(faPath, []byte(">chr1\nACGTACGTNNACGT\n"), 0600))
	prefix := filepath.Join(tmpdir, "out")
	cmd := newCmdGCDist(context.Background)
	assert.NoError(t, cmdline.ParseAndRun(cmd, cmdline.EnvFromOS(), []string{
		"-read-lengths", "4", "-no-bisulfite", "-identifier", "test", "-parallelism", "2",
		"-prefix", prefix, faPath}))

	data, err := ioutil.ReadFile(prefix + ".json")
	assert.NoError(t, err)
	var rep gcdist.Report
	assert.NoError(t, json.Unmarshal(data, &rep))
	expect.EQ(t, rep.Identifier, "test")
	expect.EQ(t, rep.ReadLengths, []int{4})
	expect.EQ(t, rep.Bisulfite, false)
	expect.EQ(t, rep.Results[0].Windows, uint64(6))

	cmd = newCmdGCDist(context.Background)
	expect.NotNil(t, cmdline.ParseAndRun(cmd, cmdline.EnvFromOS(), []string{"-prefix", prefix}))
}
