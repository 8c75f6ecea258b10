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

/*
Package gcdist computes the exact distribution of GC content over every
fixed-length window of a reference genome.

For each configured read length L, every window of L consecutive bases within
a contig is examined.  Bases other than A/C/G/T (either case) are invalid.  A
window is countable when (valid bases)/L >= Opts.Threshold, and each countable
window adds 1 to the combined_gc histogram under the key
(G+C, valid-(G+C)).  In bisulfite mode it also adds 1 to g_vs_a under (G, A)
and to c_vs_t under (C, T).

Typical use:

  ref, err := gcdist.LoadReference(ctx, "genome.fa.gz", opts)
  ...
  res, err := gcdist.Analyze(ctx, ref, opts)
  ...
  err = gcdist.WriteOutputs(ctx, res, opts)

Outputs are <prefix>.json, containing the histograms and run metadata, and
<prefix>_dist.tsv, containing each histogram smoothed into a density over
DistBins bins.
*/
package gcdist
