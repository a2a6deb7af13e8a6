// Package adapter removes 3' adapter contamination from reads by
// approximate substring search against known adapter sequences.
package adapter

import (
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/fastqprep/encoding/fastq"
	"github.com/grailbio/fastqprep/seqsimd"
)

// Opts controls the adapter search. The zero value is invalid; start from
// DefaultOpts.
type Opts struct {
	// MinMatchLen bounds the search: a match must align strictly more
	// than MinMatchLen bases, and adapters shorter than MinMatchLen are
	// never matched.
	MinMatchLen int
	// MismatchRateDenom sets the mismatch budget for an alignment of
	// length n to n/MismatchRateDenom, so longer alignments tolerate
	// proportionally more mismatches.
	MismatchRateDenom int
	// MaxMismatches, if positive, caps the mismatch budget regardless of
	// alignment length.
	MaxMismatches int
}

// DefaultOpts requires 5+ aligned bases and allows one mismatch per 8,
// uncapped.
var DefaultOpts = Opts{
	MinMatchLen:       4,
	MismatchRateDenom: 8,
}

// findAdapter returns the smallest candidate start position at which the
// adapter aligns to seq within its mismatch budget. Start positions scan
// ascending from a small negative offset (adapter hanging off the read's
// head, an allowance for A-tailing chemistry) to the last position keeping
// more than MinMatchLen aligned bases. A smaller position trims more.
func findAdapter(seq, adapter []byte, opts *Opts) (int, bool) {
	if opts.MismatchRateDenom <= 0 {
		log.Panicf("adapter: MismatchRateDenom must be positive, got %d", opts.MismatchRateDenom)
	}
	rlen, alen := len(seq), len(adapter)
	if alen < opts.MinMatchLen || rlen == 0 {
		return 0, false
	}
	start := 0
	switch {
	case alen >= 16:
		start = -4
	case alen >= 12:
		start = -3
	case alen >= 8:
		start = -2
	}
	for pos := start; pos < rlen-opts.MinMatchLen; pos++ {
		cmplen := rlen - pos
		if alen < cmplen {
			cmplen = alen
		}
		budget := cmplen / opts.MismatchRateDenom
		if opts.MaxMismatches > 0 && budget > opts.MaxMismatches {
			budget = opts.MaxMismatches
		}
		lo := 0
		if pos < 0 {
			lo = -pos
		}
		if seqsimd.CountMismatches(adapter[lo:cmplen], seq[lo+pos:cmplen+pos]) <= budget {
			return pos, true
		}
	}
	return 0, false
}

// Trim searches for the adapter in the read's tail and, if found, cuts the
// read at the contamination start. It reports whether anything was trimmed
// and the read's resulting length. A match starting before the read's first
// base trims the whole read.
func Trim(r *fastq.Read, adapter string, opts Opts) (bool, int) {
	pos, found := findAdapter(gunsafe.StringToBytes(r.Seq), gunsafe.StringToBytes(adapter), &opts)
	if !found {
		return false, r.Length()
	}
	if pos < 0 {
		pos = 0
	}
	r.Trim(pos)
	return true, pos
}

// TrimMulti evaluates every candidate adapter against the original read and
// applies the single best match, the one removing the most bases. Ties go to
// the earliest-listed adapter. An empty adapter list is a no-op.
func TrimMulti(r *fastq.Read, adapters []string, opts Opts) (bool, int) {
	seq := gunsafe.StringToBytes(r.Seq)
	best := -1
	for _, a := range adapters {
		pos, found := findAdapter(seq, gunsafe.StringToBytes(a), &opts)
		if !found {
			continue
		}
		if pos < 0 {
			pos = 0
		}
		if best < 0 || pos < best {
			best = pos
		}
	}
	if best < 0 {
		return false, r.Length()
	}
	r.Trim(best)
	return true, best
}
