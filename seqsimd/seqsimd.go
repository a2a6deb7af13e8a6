// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package seqsimd provides byte-parallel primitives for FASTQ read
// processing: quality-metric counting, reverse-complement, adjacent-base
// difference counting, and mismatch counting.
//
// Each primitive is implemented once per supported bulk width.  A single
// kernel table is resolved on first use from a CPU feature probe and shared
// by every operation and every goroutine afterwards; the table is never
// rewritten, so post-initialization reads need no synchronization.  All
// kernels are required to produce byte-identical results to the scalar
// reference implementations for every input length, including 0 and 1.
package seqsimd

import (
	"reflect"
	"sync"
	"unsafe"

	gunsafe "github.com/grailbio/base/unsafe"
)

// kernelTable holds the active implementation of each primitive.
type kernelTable struct {
	name                string
	countQualityMetrics func(qual, seq []byte, qualThreshold byte) (int, int, int)
	reverseComp         func(dst, src []byte)
	countAdjacentDiffs  func(data []byte) int
	countMismatches     func(a, b []byte) int
}

var (
	resolveOnce   sync.Once
	activeKernels *kernelTable
)

func kernels() *kernelTable {
	resolveOnce.Do(func() {
		activeKernels = resolveKernels()
	})
	return activeKernels
}

// Implementation returns the name of the active kernel set ("scalar",
// "swar", or "swar32").  Intended for logging and tests.
func Implementation() string {
	return kernels().name
}

// CountQualityMetrics scans a read's quality and sequence strings in one
// pass and returns the number of bases whose Phred+33 quality byte is below
// qualThreshold, the number of 'N' bases, and the sum of (quality - 33) over
// all bases.
//
// Quality bytes must be printable ASCII (33..126); qualThreshold must be
// below 128.  It panics if len(qual) != len(seq).
func CountQualityMetrics(qual, seq []byte, qualThreshold byte) (lowQual, nBase, qualSum int) {
	if len(qual) != len(seq) {
		panic("seqsimd.CountQualityMetrics() requires len(qual) == len(seq).")
	}
	return kernels().countQualityMetrics(qual, seq, qualThreshold)
}

// ReverseComp writes the reverse-complement of src[] to dst[].  'A'/'T' and
// 'C'/'G' are swapped with the letter's own case preserved; every other byte
// maps to 'N'.
//
// It panics if len(dst) != len(src), or if dst overlaps src: the kernels
// write dst back-to-front in chunks, so an aliased buffer would let later
// reads observe already-complemented bytes.
func ReverseComp(dst, src []byte) {
	if len(dst) != len(src) {
		panic("seqsimd.ReverseComp() requires len(dst) == len(src).")
	}
	if len(src) != 0 {
		d := (*reflect.SliceHeader)(unsafe.Pointer(&dst)).Data
		s := (*reflect.SliceHeader)(unsafe.Pointer(&src)).Data
		n := uintptr(len(src))
		if d < s+n && s < d+n {
			panic("seqsimd.ReverseComp() requires non-overlapping dst and src.")
		}
	}
	kernels().reverseComp(dst, src)
}

// ReverseCompString returns the reverse-complement of seq as a fresh string.
func ReverseCompString(seq string) string {
	dst := make([]byte, len(seq))
	kernels().reverseComp(dst, gunsafe.StringToBytes(seq))
	return gunsafe.BytesToString(dst)
}

// CountAdjacentDiffs returns the number of positions i in [0, len(data)-1)
// with data[i] != data[i+1].  Returns 0 when len(data) <= 1.
func CountAdjacentDiffs(data []byte) int {
	return kernels().countAdjacentDiffs(data)
}

// CountMismatches returns the number of positions with a[i] != b[i].
// It panics if len(a) != len(b).
func CountMismatches(a, b []byte) int {
	if len(a) != len(b) {
		panic("seqsimd.CountMismatches() requires len(a) == len(b).")
	}
	return kernels().countMismatches(a, b)
}
