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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// OutputPaths returns the JSON report and distribution paths for opts.
func OutputPaths(opts Opts) (jsonPath, distPath string) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultOpts.Prefix
	}
	jsonPath = prefix + ".json"
	distPath = prefix + "_dist.tsv"
	if opts.Compress {
		jsonPath += ".gz"
		distPath += ".gz"
	}
	return
}

// writeFile creates path and passes its writer to write, gzipping when
// compress is set.
func writeFile(ctx context.Context, path string, compress bool, write func(w io.Writer) error) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(fmt.Sprintf("gcdist: create %s", path), err)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := out.Writer(ctx)
	if !compress {
		return write(w)
	}
	gz := gzip.NewWriter(w)
	if err = write(gz); err != nil {
		gz.Close() // nolint: errcheck
		return err
	}
	return gz.Close()
}

// WriteOutputs writes the JSON report and the smoothed distribution for r
// to the paths given by OutputPaths(opts).  The distribution is computed
// before either file is created, and the report is removed again if the
// distribution cannot be written.
func WriteOutputs(ctx context.Context, r *Result, opts Opts) error {
	jsonPath, distPath := OutputPaths(opts)
	rep := NewReport(r)
	cols, err := DistColumns(r, r.Parallelism)
	if err != nil {
		return errors.E("gcdist: smooth distribution", err)
	}
	if err := writeFile(ctx, jsonPath, opts.Compress, rep.WriteJSON); err != nil {
		return errors.E("gcdist: write report", err)
	}
	if err := writeFile(ctx, distPath, opts.Compress, func(w io.Writer) error {
		return writeDistColumns(w, cols)
	}); err != nil {
		if e := file.Remove(ctx, jsonPath); e != nil {
			log.Error.Printf("gcdist: remove %s: %v", jsonPath, e)
		}
		return errors.E("gcdist: write distribution", err)
	}
	log.Printf("gcdist: wrote %s (checksum %s) and %s", jsonPath, rep.Checksum, distPath)
	return nil
}

// Run loads the reference at faPath, computes its GC distributions, and
// writes the outputs.  Nothing is written unless the analysis succeeds.
func Run(ctx context.Context, faPath string, opts Opts) error {
	if err := opts.validate(); err != nil {
		return err
	}
	ref, err := LoadReference(ctx, faPath, opts)
	if err != nil {
		return err
	}
	res, err := Analyze(ctx, ref, opts)
	if err != nil {
		return err
	}
	res.Input = faPath
	return WriteOutputs(ctx, res, opts)
}
