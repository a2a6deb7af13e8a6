// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// +build amd64,!appengine

package seqsimd

import (
	"golang.org/x/sys/cpu"
)

// Baseline amd64 always supports the word kernels; AVX2 parts get the
// 32-byte block kernels.  Probed once, then immutable for the life of the
// process (CPU features do not change under us).
func resolveKernels() *kernelTable {
	if cpu.X86.HasAVX2 {
		return &swar32Kernels
	}
	return &swarKernels
}
