// Package fastq provides FASTQ read records and streaming readers and
// writers for plain or gzipped FASTQ files.
package fastq

import (
	"errors"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/simd"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/fastqprep/seqsimd"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
	// ErrDiscordant is returned when two underlying FASTQ files are discordant.
	ErrDiscordant = errors.New("discordant FASTQ pairs")
)

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string.
//
// Seq is over {A,C,G,T,N} in either case; Qual holds one Phred+33 byte per
// base.  len(Seq) == len(Qual) always: the Scanner establishes the
// invariant at parse time, and the processing packages assume it without
// rechecking.  Trimming always resizes Seq and Qual together.
type Read struct {
	ID, Seq, Unk, Qual string
}

// Length returns the number of bases in the read.
func (r *Read) Length() int { return len(r.Seq) }

// Trim cuts the read and quality lengths to at most n.
func (r *Read) Trim(n int) {
	if n < 0 || n > len(r.Seq) {
		log.Panicf("fastq: Trim(%d) out of range for read of length %d", n, len(r.Seq))
	}
	r.Seq = r.Seq[:n]
	r.Qual = r.Qual[:n]
}

// ReverseComplement returns a copy of the read with the sequence
// reverse-complemented and the quality string reversed.  The receiver is
// unchanged.
func (r *Read) ReverseComplement() Read {
	seq := make([]byte, len(r.Seq))
	seqsimd.ReverseComp(seq, gunsafe.StringToBytes(r.Seq))
	qual := make([]byte, len(r.Qual))
	simd.Reverse8(qual, gunsafe.StringToBytes(r.Qual))
	return Read{
		ID:   r.ID,
		Seq:  gunsafe.BytesToString(seq),
		Unk:  r.Unk,
		Qual: gunsafe.BytesToString(qual),
	}
}
