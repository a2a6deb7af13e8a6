// Package overlap finds the alignment between the two reads of a pair and
// merges them into a single consensus read.
//
// Read 2 is reverse-complemented into read 1's orientation before any
// comparison. Offsets are expressed as the signed shift of the
// reverse-complemented read 2 relative to read 1's start: a positive offset
// means its aligned region begins that many bases into read 1.
package overlap

import (
	"fmt"

	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/fastqprep/encoding/fastq"
	"github.com/grailbio/fastqprep/seqsimd"
)

// Opts controls overlap acceptance.
type Opts struct {
	// MismatchLimit is the absolute ceiling on mismatches within the
	// overlap window.
	MismatchLimit int
	// MinOverlap is the minimum window length for an offset to be
	// considered.
	MinOverlap int
	// MismatchFraction is the ceiling on mismatches as a fraction of the
	// window length.
	MismatchFraction float64
}

// DefaultOpts accepts windows of 30+ bases with at most 5 mismatches and at
// most 20% mismatched positions.
var DefaultOpts = Opts{
	MismatchLimit:    5,
	MinOverlap:       30,
	MismatchFraction: 0.2,
}

// Result describes one accepted alignment, or none.
type Result struct {
	Overlapped bool
	Offset     int
	OverlapLen int
	Diff       int
}

func (o *Opts) accept(diff, ol int) bool {
	return ol >= o.MinOverlap &&
		diff <= o.MismatchLimit &&
		float64(diff) <= o.MismatchFraction*float64(ol)
}

// Analyze scans candidate offsets outward from zero, positive shifts first,
// and returns the first acceptable one. Scanning in that order retains the
// offset with the largest overlap window, with ties going to the smallest
// absolute shift. The zero Result is returned when no offset qualifies.
func Analyze(r1, r2 *fastq.Read, opts Opts) Result {
	len1, len2 := r1.Length(), r2.Length()
	if len1 < opts.MinOverlap || len2 < opts.MinOverlap {
		return Result{}
	}
	seq1 := gunsafe.StringToBytes(r1.Seq)
	rc2 := make([]byte, len2)
	seqsimd.ReverseComp(rc2, gunsafe.StringToBytes(r2.Seq))

	for offset := 0; offset < len1-opts.MinOverlap; offset++ {
		ol := min(len1-offset, len2)
		diff := seqsimd.CountMismatches(seq1[offset:offset+ol], rc2[:ol])
		if opts.accept(diff, ol) {
			return Result{Overlapped: true, Offset: offset, OverlapLen: ol, Diff: diff}
		}
	}
	for offset := -1; offset > -(len2 - opts.MinOverlap); offset-- {
		ol := min(len1, len2+offset)
		diff := seqsimd.CountMismatches(seq1[:ol], rc2[-offset:-offset+ol])
		if opts.accept(diff, ol) {
			return Result{Overlapped: true, Offset: offset, OverlapLen: ol, Diff: diff}
		}
	}
	return Result{}
}

// Merge builds the consensus read for an accepted alignment. Flanks outside
// the overlap window are copied verbatim from whichever read covers them;
// within the window each position takes the base and quality byte from the
// read with the higher quality there, ties keeping read 1's. The merged
// length is the union span of the two reads under the resolved offset, and
// the merged ID is read 1's with a " merged_<overlap>_<length>" suffix.
//
// Calling Merge with Overlapped false, or with an offset/window that does
// not fit the reads, is a programming error and panics.
func Merge(r1, r2 *fastq.Read, res Result) fastq.Read {
	if !res.Overlapped {
		log.Panicf("overlap: merge of a non-overlapped result")
	}
	len1, len2 := r1.Length(), r2.Length()
	offset, ol := res.Offset, res.OverlapLen
	want := 0
	if offset >= 0 {
		want = min(len1-offset, len2)
	} else {
		want = min(len1, len2+offset)
	}
	if ol <= 0 || ol != want {
		log.Panicf("overlap: result %+v does not fit reads of length %d and %d", res, len1, len2)
	}

	rc2 := r2.ReverseComplement()
	var mergedLen int
	if offset >= 0 {
		mergedLen = max(len1, offset+len2)
	} else {
		mergedLen = max(len2, -offset+len1)
	}
	seq := make([]byte, mergedLen)
	qual := make([]byte, mergedLen)

	if offset >= 0 {
		copy(seq, r1.Seq[:offset])
		copy(qual, r1.Qual[:offset])
		for i := 0; i < ol; i++ {
			if rc2.Qual[i] > r1.Qual[offset+i] {
				seq[offset+i], qual[offset+i] = rc2.Seq[i], rc2.Qual[i]
			} else {
				seq[offset+i], qual[offset+i] = r1.Seq[offset+i], r1.Qual[offset+i]
			}
		}
		if offset+len2 > len1 {
			copy(seq[offset+ol:], rc2.Seq[ol:])
			copy(qual[offset+ol:], rc2.Qual[ol:])
		} else {
			copy(seq[offset+ol:], r1.Seq[offset+ol:])
			copy(qual[offset+ol:], r1.Qual[offset+ol:])
		}
	} else {
		shift := -offset
		copy(seq, rc2.Seq[:shift])
		copy(qual, rc2.Qual[:shift])
		for i := 0; i < ol; i++ {
			if rc2.Qual[shift+i] > r1.Qual[i] {
				seq[shift+i], qual[shift+i] = rc2.Seq[shift+i], rc2.Qual[shift+i]
			} else {
				seq[shift+i], qual[shift+i] = r1.Seq[i], r1.Qual[i]
			}
		}
		if shift+len1 > len2 {
			copy(seq[shift+ol:], r1.Seq[ol:])
			copy(qual[shift+ol:], r1.Qual[ol:])
		} else {
			copy(seq[shift+ol:], rc2.Seq[shift+ol:])
			copy(qual[shift+ol:], rc2.Qual[shift+ol:])
		}
	}
	return fastq.Read{
		ID:   r1.ID + fmt.Sprintf(" merged_%d_%d", ol, mergedLen),
		Seq:  gunsafe.BytesToString(seq),
		Unk:  r1.Unk,
		Qual: gunsafe.BytesToString(qual),
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
