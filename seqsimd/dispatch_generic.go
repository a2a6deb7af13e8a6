// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// +build !amd64,!arm64 appengine

package seqsimd

// No word kernels on this platform; the scalar reference implementations
// are behaviorally identical, just slower.
func resolveKernels() *kernelTable {
	return &scalarKernels
}
