// Package filter classifies reads by base quality and sequence complexity.
// It never modifies a read; callers decide what to do with failed reads.
package filter

import (
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/fastqprep/encoding/fastq"
	"github.com/grailbio/fastqprep/seqsimd"
)

// Config holds the filtering thresholds.
type Config struct {
	// QualifiedQual is the Phred+33 byte at or above which a base counts
	// as qualified.
	QualifiedQual byte
	// UnqualifiedPctLimit fails a read when the fraction of bases below
	// QualifiedQual exceeds it.
	UnqualifiedPctLimit float64
	// NBaseLimit fails a read when the number of N bases exceeds it.
	NBaseLimit int
	// LowComplexityThreshold fails a read when the fraction of adjacent
	// positions holding different bases falls below it. A long homopolymer
	// run has a fraction near zero.
	LowComplexityThreshold float64
}

// DefaultConfig holds the conventional thresholds: quality 15 ('0'),
// at most 40% unqualified bases, at most 5 N bases, and at least 30%
// adjacent-base transitions.
var DefaultConfig = Config{
	QualifiedQual:          '0',
	UnqualifiedPctLimit:    0.4,
	NBaseLimit:             5,
	LowComplexityThreshold: 0.3,
}

// Reason is the outcome of a filtering decision.
type Reason int

const (
	// Pass means the read satisfied every enabled filter.
	Pass Reason = iota
	// FailQuality means too large a fraction of bases were below the
	// qualified quality threshold.
	FailQuality
	// FailTooManyN means the read held more N bases than allowed.
	FailTooManyN
	// FailLowComplexity means too few adjacent positions differed.
	FailLowComplexity
)

func (r Reason) String() string {
	switch r {
	case Pass:
		return "pass"
	case FailQuality:
		return "low quality"
	case FailTooManyN:
		return "too many N bases"
	case FailLowComplexity:
		return "low complexity"
	}
	return "unknown"
}

// Passed reports whether the reason is Pass.
func (r Reason) Passed() bool { return r == Pass }

// Decision classifies the read against the config. Checks run in order:
// quality, N count, complexity; the first failing check names the reason.
// Reads of length <= 1 have no adjacent pairs and cannot fail the
// complexity check; an empty read passes everything.
func Decision(r *fastq.Read, c *Config) Reason {
	n := r.Length()
	seq := gunsafe.StringToBytes(r.Seq)
	qual := gunsafe.StringToBytes(r.Qual)
	lowQual, nBase, _ := seqsimd.CountQualityMetrics(qual, seq, c.QualifiedQual)
	if float64(lowQual) > c.UnqualifiedPctLimit*float64(n) {
		return FailQuality
	}
	if nBase > c.NBaseLimit {
		return FailTooManyN
	}
	if n > 1 {
		diffs := seqsimd.CountAdjacentDiffs(seq)
		if float64(diffs) < c.LowComplexityThreshold*float64(n-1) {
			return FailLowComplexity
		}
	}
	return Pass
}
