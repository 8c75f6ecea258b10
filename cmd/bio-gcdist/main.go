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
package main

import (
	"context"
	"fmt"
	golog "log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gcdist/gcdist"
	"v.io/x/lib/cmdline"
)

func formatReadLengths(lengths []int) string {
	s := make([]string, len(lengths))
	for i, l := range lengths {
		s[i] = strconv.Itoa(l)
	}
	return strings.Join(s, ",")
}

func parseReadLengths(s string) ([]int, error) {
	var lengths []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		l, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid read length %q: %v", field, err)
		}
		lengths = append(lengths, l)
	}
	return lengths, nil
}

// newCmdGCDist returns the bio-gcdist command.  background supplies the
// context the run derives from.
func newCmdGCDist(background func() context.Context) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "bio-gcdist",
		Short:    "Compute the GC-content distribution of a reference genome",
		ArgsName: "fapath",
		Long: `
bio-gcdist counts, for every window of each read length in a reference FASTA,
the number of G/C and A/T bases, and reports the exact histogram of those
counts over all windows whose proportion of valid bases reaches the threshold.
`,
	}
	defaults := gcdist.DefaultOpts
	threshold := cmd.Flags.Float64("threshold", defaults.Threshold, "Minimum proportion of valid (A/C/G/T) bases for a window to be counted, in [0, 1]")
	readLengths := cmd.Flags.String("read-lengths", formatReadLengths(defaults.ReadLengths), "Comma-separated list of read lengths")
	noBisulfite := cmd.Flags.Bool("no-bisulfite", !defaults.Bisulfite, "Skip the G-vs-A and C-vs-T histograms")
	identifier := cmd.Flags.String("identifier", defaults.Identifier, "Identifier copied into the report")
	parallelism := cmd.Flags.Int("parallelism", defaults.Parallelism, "Number of worker goroutines; 0 = runtime.NumCPU()")
	bedPath := cmd.Flags.String("bed", defaults.BedPath, "Optional BED of target regions; bases outside them are treated as invalid")
	region := cmd.Flags.String("region", defaults.Region, "Optional target region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>")
	prefix := cmd.Flags.String("prefix", defaults.Prefix, "Output path prefix")
	compress := cmd.Flags.Bool("gz", defaults.Compress, "Gzip the output files")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("bio-gcdist takes one fapath argument, but got %v", argv)
		}
		lengths, err := parseReadLengths(*readLengths)
		if err != nil {
			return env.UsageErrorf("%v", err)
		}
		opts := gcdist.Opts{
			Threshold:   *threshold,
			ReadLengths: lengths,
			Bisulfite:   !*noBisulfite,
			Identifier:  *identifier,
			Parallelism: *parallelism,
			BedPath:     *bedPath,
			Region:      *region,
			Prefix:      *prefix,
			Compress:    *compress,
		}
		parent := background()
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := gcdist.Run(ctx, argv[0], opts); err != nil {
			if ctx.Err() != nil && parent.Err() == nil {
				log.Error.Printf("bio-gcdist: interrupted by signal, no output written")
			}
			return err
		}
		log.Debug.Printf("exiting")
		return nil
	})
	return cmd
}

func main() {
	golog.SetFlags(golog.Ldate | golog.Ltime | golog.Lmicroseconds | golog.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdGCDist(func() context.Context { return vcontext.Background() }))
}
