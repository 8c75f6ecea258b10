// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides table-driven implementations of the .fa-specific
// byte-array operations used on the GC-distribution hot path: conversion to
// the .bam 4-bit base code, and base-code counting.
//
// The functions are written as simple loops over lookup tables; the compiler
// keeps them bounds-check free, and they are fast enough that the window
// scanner, not decoding, dominates runtime.
package biosimd
