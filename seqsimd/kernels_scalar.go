// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package seqsimd

// Scalar reference kernels.  These define the required behavior of every
// other kernel set, serve as the differential-test oracle, and are the
// active set on platforms where the word kernels are unavailable.

// revCompTable maps each base to its Watson-Crick complement, preserving
// case, and everything else to 'N'.  A pure data table rather than a switch
// keeps the lookup branch-prediction-free.
var revCompTable = [...]byte{
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'T', 'N', 'G', 'N', 'N', 'N', 'C', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'A', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 't', 'N', 'g', 'N', 'N', 'N', 'c', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'a', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
	'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N', 'N'}

var scalarKernels = kernelTable{
	name:                "scalar",
	countQualityMetrics: countQualityMetricsScalar,
	reverseComp:         reverseCompScalar,
	countAdjacentDiffs:  countAdjacentDiffsScalar,
	countMismatches:     countMismatchesScalar,
}

func countQualityMetricsScalar(qual, seq []byte, qualThreshold byte) (lowQual, nBase, qualSum int) {
	for i, q := range qual {
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

func reverseCompScalar(dst, src []byte) {
	nByte := len(src)
	for idx, invIdx := 0, nByte-1; idx != nByte; idx, invIdx = idx+1, invIdx-1 {
		dst[idx] = revCompTable[src[invIdx]]
	}
}

func countAdjacentDiffsScalar(data []byte) int {
	diff := 0
	for i := 0; i+1 < len(data); i++ {
		if data[i] != data[i+1] {
			diff++
		}
	}
	return diff
}

func countMismatchesScalar(a, b []byte) int {
	diff := 0
	for i, aByte := range a {
		if aByte != b[i] {
			diff++
		}
	}
	return diff
}
