// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// +build arm64,!appengine

package seqsimd

import (
	"golang.org/x/sys/cpu"
)

func resolveKernels() *kernelTable {
	if cpu.ARM64.HasASIMD {
		return &swar32Kernels
	}
	return &swarKernels
}
