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
Given a reference FASTA, bio-gcdist computes the exact distribution of GC
content over every window of each requested read length.  The output can be
used as the expected GC distribution when assessing GC bias in sequencing
data.

Sample usage:
bio-gcdist \
    -read-lengths 100,150 \
    -threshold 0.8 \
    -prefix out/hg38 \
    hg38.fa.gz

This writes out/hg38.json, containing the histograms and run metadata, and
out/hg38_dist.tsv, containing each histogram smoothed into a density over 1000
GC bins.  With -bed and/or -region, bases outside the given targets are treated
as invalid.  Bisulfite mode (on by default; disable with -no-bisulfite) adds
G-vs-A and C-vs-T histograms.

SIGINT and SIGTERM abort the run; no output is written in that case.
*/
package main
