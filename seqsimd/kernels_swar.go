// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// +build amd64 arm64
// +build !appengine

package seqsimd

import (
	"math/bits"
	"unsafe"
)

// Word kernels: 8 bytes per step via unaligned machine-word loads, with a
// scalar remainder loop.  The 32-byte block variants unroll the same steps
// four-wide for parts with a wide vector unit.  Both tiers assume a
// little-endian 64-bit target (guaranteed by the build tags above), so byte
// k of the input is bits [8k, 8k+8) of the loaded word.

const (
	wordBytes = 8

	lo8 = 0x0101010101010101
	hi8 = 0x8080808080808080
	// even16 selects the even-indexed bytes of a word as four 16-bit lanes.
	even16 = 0x00ff00ff00ff00ff

	nnnnLo8    = 'N' * lo8
	phred33Lo8 = 33 * lo8
)

var swarKernels = kernelTable{
	name:                "swar",
	countQualityMetrics: countQualityMetricsSWAR,
	reverseComp:         reverseCompSWAR,
	countAdjacentDiffs:  countAdjacentDiffsSWAR,
	countMismatches:     countMismatchesSWAR,
}

var swar32Kernels = kernelTable{
	name:                "swar32",
	countQualityMetrics: countQualityMetrics32,
	reverseComp:         reverseCompSWAR,
	countAdjacentDiffs:  countAdjacentDiffs32,
	countMismatches:     countMismatches32,
}

func loadWord(data []byte, pos int) uint64 {
	return *(*uint64)(unsafe.Pointer(&data[pos]))
}

func storeWord(data []byte, pos int, w uint64) {
	*(*uint64)(unsafe.Pointer(&data[pos])) = w
}

// zeroByteCount returns the number of zero bytes in w.  Forcing each high
// bit before the decrement makes every per-byte subtraction borrow-free, so
// the flag bit of (w|hi8)-lo8 reflects its own byte only: cleared for a zero
// byte, set (directly or via w) for any nonzero byte.
func zeroByteCount(w uint64) int {
	return wordBytes - bits.OnesCount64((w|((w|hi8)-lo8))&hi8)
}

// countQualityMetricsSWAR accumulates the quality sum in four 16-bit lanes.
// Each lane gains at most 2*93 per word, so flushing to the int total every
// 256 words keeps the lanes below 2^16.
const qualSumFlushBytes = 256 * wordBytes

func countQualityMetricsSWAR(qual, seq []byte, qualThreshold byte) (lowQual, nBase, qualSum int) {
	n := len(qual)
	threshLo8 := uint64(qualThreshold) * lo8
	i := 0
	for blockStart := 0; blockStart < n; blockStart += qualSumFlushBytes {
		blockEnd := blockStart + qualSumFlushBytes
		if blockEnd > n {
			blockEnd = n
		}
		var acc16 uint64
		for i = blockStart; i+wordBytes <= blockEnd; i += wordBytes {
			q := loadWord(qual, i)
			s := loadWord(seq, i)
			// Quality bytes are ASCII (< 0x80), so forcing the high bit makes
			// each per-byte subtraction borrow-free; the bit survives iff the
			// byte is >= qualThreshold.
			ge := ((q | hi8) - threshLo8) & hi8
			lowQual += wordBytes - bits.OnesCount64(ge)
			nBase += zeroByteCount(s ^ nnnnLo8)
			d := q - phred33Lo8
			acc16 += (d & even16) + ((d >> 8) & even16)
		}
		qualSum += int(acc16&0xffff) + int((acc16>>16)&0xffff) +
			int((acc16>>32)&0xffff) + int(acc16>>48)
	}
	for ; i < n; i++ {
		q := qual[i]
		qualSum += int(q) - 33
		if q < qualThreshold {
			lowQual++
		}
		if seq[i] == 'N' {
			nBase++
		}
	}
	return
}

func countQualityMetrics32(qual, seq []byte, qualThreshold byte) (lowQual, nBase, qualSum int) {
	n := len(qual)
	threshLo8 := uint64(qualThreshold) * lo8
	i := 0
	for blockStart := 0; blockStart < n; blockStart += qualSumFlushBytes {
		blockEnd := blockStart + qualSumFlushBytes
		if blockEnd > n {
			blockEnd = n
		}
		var acc16 uint64
		i = blockStart
		for ; i+4*wordBytes <= blockEnd; i += 4 * wordBytes {
			var ge uint64
			for k := 0; k < 4*wordBytes; k += wordBytes {
				q := loadWord(qual, i+k)
				s := loadWord(seq, i+k)
				ge += uint64(bits.OnesCount64(((q | hi8) - threshLo8) & hi8))
				nBase += zeroByteCount(s ^ nnnnLo8)
				d := q - phred33Lo8
				acc16 += (d & even16) + ((d >> 8) & even16)
			}
			lowQual += 4*wordBytes - int(ge)
		}
		for ; i+wordBytes <= blockEnd; i += wordBytes {
			q := loadWord(qual, i)
			s := loadWord(seq, i)
			ge := ((q | hi8) - threshLo8) & hi8
			lowQual += wordBytes - bits.OnesCount64(ge)
			nBase += zeroByteCount(s ^ nnnnLo8)
			d := q - phred33Lo8
			acc16 += (d & even16) + ((d >> 8) & even16)
		}
		qualSum += int(acc16&0xffff) + int((acc16>>16)&0xffff) +
			int((acc16>>32)&0xffff) + int(acc16>>48)
	}
	for ; i < n; i++ {
		q := qual[i]
		qualSum += int(q) - 33
		if q < qualThreshold {
			lowQual++
		}
		if seq[i] == 'N' {
			nBase++
		}
	}
	return
}

// reverseCompSWAR complements 8 bytes at a time, assembling the
// byte-reversed output word directly and storing it at the mirrored
// position.  dst must not overlap src (the back half of dst is written while
// the back half of src is still unread).
func reverseCompSWAR(dst, src []byte) {
	n := len(src)
	i := 0
	for ; i+wordBytes <= n; i += wordBytes {
		w := loadWord(src, i)
		out := uint64(revCompTable[w&0xff])<<56 |
			uint64(revCompTable[(w>>8)&0xff])<<48 |
			uint64(revCompTable[(w>>16)&0xff])<<40 |
			uint64(revCompTable[(w>>24)&0xff])<<32 |
			uint64(revCompTable[(w>>32)&0xff])<<24 |
			uint64(revCompTable[(w>>40)&0xff])<<16 |
			uint64(revCompTable[(w>>48)&0xff])<<8 |
			uint64(revCompTable[w>>56])
		storeWord(dst, n-wordBytes-i, out)
	}
	for ; i < n; i++ {
		dst[n-1-i] = revCompTable[src[i]]
	}
}

func countAdjacentDiffsSWAR(data []byte) int {
	n := len(data)
	diff := 0
	i := 0
	// The shifted load reaches data[i+wordBytes], hence the strict bound.
	for ; i+wordBytes < n; i += wordBytes {
		x := loadWord(data, i) ^ loadWord(data, i+1)
		diff += wordBytes - zeroByteCount(x)
	}
	for ; i+1 < n; i++ {
		if data[i] != data[i+1] {
			diff++
		}
	}
	return diff
}

func countAdjacentDiffs32(data []byte) int {
	n := len(data)
	diff := 0
	i := 0
	for ; i+4*wordBytes < n; i += 4 * wordBytes {
		for k := 0; k < 4*wordBytes; k += wordBytes {
			x := loadWord(data, i+k) ^ loadWord(data, i+k+1)
			diff += wordBytes - zeroByteCount(x)
		}
	}
	for ; i+wordBytes < n; i += wordBytes {
		x := loadWord(data, i) ^ loadWord(data, i+1)
		diff += wordBytes - zeroByteCount(x)
	}
	for ; i+1 < n; i++ {
		if data[i] != data[i+1] {
			diff++
		}
	}
	return diff
}

func countMismatchesSWAR(a, b []byte) int {
	n := len(a)
	diff := 0
	i := 0
	for ; i+wordBytes <= n; i += wordBytes {
		x := loadWord(a, i) ^ loadWord(b, i)
		diff += wordBytes - zeroByteCount(x)
	}
	for ; i < n; i++ {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff
}

func countMismatches32(a, b []byte) int {
	n := len(a)
	diff := 0
	i := 0
	for ; i+4*wordBytes <= n; i += 4 * wordBytes {
		for k := 0; k < 4*wordBytes; k += wordBytes {
			x := loadWord(a, i+k) ^ loadWord(b, i+k)
			diff += wordBytes - zeroByteCount(x)
		}
	}
	for ; i+wordBytes <= n; i += wordBytes {
		x := loadWord(a, i) ^ loadWord(b, i)
		diff += wordBytes - zeroByteCount(x)
	}
	for ; i < n; i++ {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff
}
