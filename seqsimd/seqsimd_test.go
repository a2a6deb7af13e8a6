// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package seqsimd_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/grailbio/fastqprep/seqsimd"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
)

// Differential-test lengths: 0, 1, around the word and block widths, and 68
// to exercise a vector body plus an odd tail.
var diffTestLens = []int{0, 1, 7, 8, 9, 15, 16, 17, 31, 32, 33, 63, 64, 65, 68, 127, 128, 2047, 2048, 2049, 4096}

func countQualityMetricsSlow(qual, seq []byte, qualThreshold byte) (lowQual, nBase, qualSum int) {
	for i := range qual {
		qualSum += int(qual[i]) - 33
		if qual[i] < qualThreshold {
			lowQual++
		}
		if seq[i] == 'N' {
			nBase++
		}
	}
	return
}

func reverseCompSlow(src []byte) []byte {
	dst := make([]byte, len(src))
	for i, b := range src {
		var c byte
		switch b {
		case 'A':
			c = 'T'
		case 'a':
			c = 't'
		case 'T':
			c = 'A'
		case 't':
			c = 'a'
		case 'C':
			c = 'G'
		case 'c':
			c = 'g'
		case 'G':
			c = 'C'
		case 'g':
			c = 'c'
		default:
			c = 'N'
		}
		dst[len(src)-1-i] = c
	}
	return dst
}

func countAdjacentDiffsSlow(data []byte) int {
	diff := 0
	for i := 0; i+1 < len(data); i++ {
		if data[i] != data[i+1] {
			diff++
		}
	}
	return diff
}

func countMismatchesSlow(a, b []byte) int {
	diff := 0
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff
}

func randSeq(rng *rand.Rand, n int) []byte {
	const alphabet = "ACGTNacgtn"
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return seq
}

// randBytes draws from the full byte range. The kernels' counting contracts
// cover arbitrary bytes, not just the DNA alphabet, and adjacent byte values
// exercise the borrow-free zero-byte flags.
func randBytes(rng *rand.Rand, n int) []byte {
	data := make([]byte, n)
	rng.Read(data)
	return data
}

func randQual(rng *rand.Rand, n int) []byte {
	qual := make([]byte, n)
	for i := range qual {
		qual[i] = byte(33 + rng.Intn(94))
	}
	return qual
}

func TestCountQualityMetrics(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range diffTestLens {
		for iter := 0; iter < 20; iter++ {
			qual := randQual(rng, n)
			seq := randSeq(rng, n)
			thresh := byte(33 + rng.Intn(94))
			lowQual, nBase, qualSum := seqsimd.CountQualityMetrics(qual, seq, thresh)
			wantLowQual, wantNBase, wantQualSum := countQualityMetricsSlow(qual, seq, thresh)
			if lowQual != wantLowQual || nBase != wantNBase || qualSum != wantQualSum {
				t.Fatalf("CountQualityMetrics mismatch at len %d: got (%d, %d, %d), want (%d, %d, %d)",
					n, lowQual, nBase, qualSum, wantLowQual, wantNBase, wantQualSum)
			}
		}
	}
	// Arbitrary sequence bytes: the N count must stay exact even for bytes
	// one off from 'N', where a borrow-prone flag formula would over-count.
	for _, n := range diffTestLens {
		qual := randQual(rng, n)
		seq := randBytes(rng, n)
		lowQual, nBase, qualSum := seqsimd.CountQualityMetrics(qual, seq, '5')
		wantLowQual, wantNBase, wantQualSum := countQualityMetricsSlow(qual, seq, '5')
		if lowQual != wantLowQual || nBase != wantNBase || qualSum != wantQualSum {
			t.Fatalf("CountQualityMetrics mismatch at len %d: got (%d, %d, %d), want (%d, %d, %d)",
				n, lowQual, nBase, qualSum, wantLowQual, wantNBase, wantQualSum)
		}
	}
	_, nBaseAdj, _ := seqsimd.CountQualityMetrics([]byte("EEEEEEEE"), []byte("NONNNNNN"), '5')
	expect.EQ(t, nBaseAdj, 7)

	// Maximum-quality run long enough to force several accumulator flushes.
	qual := bytes.Repeat([]byte{'~'}, 70000)
	seq := bytes.Repeat([]byte{'N'}, 70000)
	lowQual, nBase, qualSum := seqsimd.CountQualityMetrics(qual, seq, '~')
	expect.EQ(t, lowQual, 0)
	expect.EQ(t, nBase, 70000)
	expect.EQ(t, qualSum, 93*70000)
}

func TestReverseComp(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, n := range diffTestLens {
		for iter := 0; iter < 20; iter++ {
			src := randSeq(rng, n)
			dst := make([]byte, n)
			seqsimd.ReverseComp(dst, src)
			if want := reverseCompSlow(src); !bytes.Equal(dst, want) {
				t.Fatalf("ReverseComp mismatch at len %d: got %q, want %q", n, dst, want)
			}
		}
	}
	expect.EQ(t, seqsimd.ReverseCompString("AAAATTTTCCCCGGGG"), "CCCCGGGGAAAATTTT")
	expect.EQ(t, seqsimd.ReverseCompString("A"), "T")
	expect.EQ(t, seqsimd.ReverseCompString(""), "")
	// Everything outside the DNA alphabet maps to 'N'.
	expect.EQ(t, seqsimd.ReverseCompString("AXGU"), "NCNT")
}

// Reverse-complement is an involution over {A,C,G,T,a,c,g,t}; 'N' is lossy
// by design (its "complement" is again 'N', but so is every unknown byte's).
func TestReverseCompInvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const alphabet = "ACGTacgt"
	for iter := 0; iter < 50; iter++ {
		src := make([]byte, rng.Intn(200))
		for i := range src {
			src[i] = alphabet[rng.Intn(len(alphabet))]
		}
		tmp := make([]byte, len(src))
		dst := make([]byte, len(src))
		seqsimd.ReverseComp(tmp, src)
		seqsimd.ReverseComp(dst, tmp)
		if !bytes.Equal(dst, src) {
			t.Fatalf("double ReverseComp changed %q into %q", src, dst)
		}
	}
}

func TestReverseCompAliasPanics(t *testing.T) {
	buf := []byte("ACGTACGT")
	assert.Panics(t, func() { seqsimd.ReverseComp(buf, buf) })
	assert.Panics(t, func() { seqsimd.ReverseComp(buf[:4], buf[2:6]) })
	assert.Panics(t, func() { seqsimd.ReverseComp(make([]byte, 3), buf) })
}

func TestCountAdjacentDiffs(t *testing.T) {
	expect.EQ(t, seqsimd.CountAdjacentDiffs(nil), 0)
	expect.EQ(t, seqsimd.CountAdjacentDiffs([]byte("A")), 0)
	expect.EQ(t, seqsimd.CountAdjacentDiffs([]byte("AAAAAAAAAA")), 0)
	expect.EQ(t, seqsimd.CountAdjacentDiffs([]byte("ACACACACAC")), 9)
	// Adjacent bytes one value apart ('A'^'@' == 1).
	expect.EQ(t, seqsimd.CountAdjacentDiffs([]byte("A@A@A@A@A@A@A@A@")), 15)
	rng := rand.New(rand.NewSource(4))
	for _, n := range diffTestLens {
		for iter := 0; iter < 20; iter++ {
			data := randSeq(rng, n)
			if iter&1 == 1 {
				data = randBytes(rng, n)
			}
			if got, want := seqsimd.CountAdjacentDiffs(data), countAdjacentDiffsSlow(data); got != want {
				t.Fatalf("CountAdjacentDiffs mismatch at len %d: got %d, want %d", n, got, want)
			}
		}
	}
}

func TestCountMismatches(t *testing.T) {
	expect.EQ(t, seqsimd.CountMismatches([]byte("AAAA"), []byte("TTTT")), 4)
	expect.EQ(t, seqsimd.CountMismatches(nil, nil), 0)
	s := []byte("ACGTACGTACGT")
	expect.EQ(t, seqsimd.CountMismatches(s, s), 0)
	// A matching byte directly before a byte pair differing by exactly one
	// value: the per-byte flags must not bleed into their neighbors.
	expect.EQ(t, seqsimd.CountMismatches([]byte("AAAAAAAA"), []byte("A@AAAAAA")), 1)
	expect.EQ(t, seqsimd.CountMismatches([]byte("AAAAAAAAAAAAAAAA"), []byte("A@A@A@A@AAAAAAAA")), 4)
	assert.Panics(t, func() { seqsimd.CountMismatches([]byte("AA"), []byte("A")) })
	rng := rand.New(rand.NewSource(5))
	for _, n := range diffTestLens {
		for iter := 0; iter < 20; iter++ {
			a := randSeq(rng, n)
			b := randSeq(rng, n)
			if iter&1 == 1 {
				a = randBytes(rng, n)
				b = append([]byte(nil), a...)
				for j := range b {
					if rng.Intn(4) == 0 {
						b[j] ^= byte(1 + rng.Intn(3))
					}
				}
			}
			// Patch in identical stretches so both branches of the byte
			// comparison are exercised.
			if n >= 16 {
				copy(b[4:12], a[4:12])
			}
			if got, want := seqsimd.CountMismatches(a, b), countMismatchesSlow(a, b); got != want {
				t.Fatalf("CountMismatches mismatch at len %d: got %d, want %d", n, got, want)
			}
		}
	}
}

func TestImplementation(t *testing.T) {
	name := seqsimd.Implementation()
	expect.True(t, name == "scalar" || name == "swar" || name == "swar32")
}

func benchmarkBytes(n int) ([]byte, []byte) {
	rng := rand.New(rand.NewSource(6))
	return randQual(rng, n), randSeq(rng, n)
}

func Benchmark_CountQualityMetrics(b *testing.B) {
	qual, seq := benchmarkBytes(151)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		seqsimd.CountQualityMetrics(qual, seq, '5')
	}
}

func Benchmark_CountMismatches(b *testing.B) {
	_, a := benchmarkBytes(151)
	_, bb := benchmarkBytes(151)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		seqsimd.CountMismatches(a, bb)
	}
}
