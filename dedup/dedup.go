// Package dedup flags duplicate reads and read pairs using a set of
// independent Bloom filter buffers updated by lock-free atomic bit sets.
// Duplicate detection is probabilistic: a read seen before is always
// flagged, a novel read is occasionally flagged in error, with the
// false-positive rate shrinking as the accuracy level grows.
package dedup

import (
	"sync/atomic"

	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/fastqprep/encoding/fastq"
)

const (
	primeArrayLen = 1 << 9
	// maxBufNum bounds the per-call hash array so it stays on the stack.
	maxBufNum = 8
)

// Per-base hash constants: A=7, C=74, G=31, T=222, everything else 13.
var seqHashVal = [256]uint64{
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 7, 13, 74, 13, 13, 13, 31, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 222, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
}

// Detector is a concurrent duplicate detector. All methods are safe to call
// from multiple goroutines; the filter buffers are the only shared mutable
// state, updated through atomic read-modify-write operations only.
type Detector struct {
	bufLenBytes uint64
	bufLenBits  uint64
	bufNum      int
	offsetMask  int
	// bufNum bit arrays of bufLenBytes each, packed into one word slice.
	bufs   []uint32
	primes []uint64

	totalReads uint64
	dupReads   uint64
}

// New constructs a detector sized by accuracy level 1 through 6. Memory
// grows with the level: 1 GiB at level 1 doubling to 32 GiB at level 6,
// with higher levels giving lower false-positive rates. A level outside
// [1,6] or an allocation failure is fatal.
func New(accuracyLevel int) *Detector {
	bufLenBytes := uint64(1) << 29
	bufNum := 2
	switch accuracyLevel {
	case 1:
	case 2:
		bufLenBytes *= 2
	case 3:
		bufLenBytes *= 2
		bufNum *= 2
	case 4:
		bufLenBytes *= 4
		bufNum *= 2
	case 5:
		bufLenBytes *= 8
		bufNum *= 2
	case 6:
		bufLenBytes *= 8
		bufNum *= 4
	default:
		log.Fatalf("dedup: accuracy level must be in [1,6], got %d", accuracyLevel)
	}
	return NewWithSize(bufLenBytes, bufNum)
}

// NewWithSize constructs a detector with explicit buffer dimensions.
// bufLenBytes must be a positive multiple of 4 and bufNum one of 1, 2, 4,
// or 8, so the salt-table index mask is a true modulus. Meant for tests;
// production callers size through New.
func NewWithSize(bufLenBytes uint64, bufNum int) *Detector {
	if bufLenBytes == 0 || bufLenBytes%4 != 0 {
		log.Panicf("dedup: buffer length %d is not a positive multiple of 4", bufLenBytes)
	}
	if bufNum < 1 || bufNum > maxBufNum || bufNum&(bufNum-1) != 0 {
		log.Panicf("dedup: buffer count %d is not a power of two in [1,%d]", bufNum, maxBufNum)
	}
	d := &Detector{
		bufLenBytes: bufLenBytes,
		bufLenBits:  bufLenBytes << 3,
		bufNum:      bufNum,
		offsetMask:  primeArrayLen*bufNum - 1,
	}
	total := bufLenBytes * uint64(bufNum)
	defer func() {
		// A length out of range for this platform surfaces as a panic from
		// make; a true out-of-memory kill cannot be intercepted.
		if r := recover(); r != nil {
			log.Fatalf("dedup: failed to allocate %d bytes for duplicate analysis (%v); reduce the accuracy level and try again", total, r)
		}
	}()
	d.bufs = make([]uint32, total/4)
	d.primes = initPrimes(bufNum * primeArrayLen)
	return d
}

// initPrimes fills the salt table with primes found by trial division,
// starting just above 10000 and skipping ahead ~10000 after each hit so the
// salts are spread over a wide range.
func initPrimes(n int) []uint64 {
	primes := make([]uint64, n)
	number := uint64(10000)
	for count := 0; count < n; {
		number++
		isPrime := true
		for i := uint64(2); i*i <= number; i++ {
			if number%i == 0 {
				isPrime = false
				break
			}
		}
		if isPrime {
			primes[count] = number
			count++
			number += 10000
		}
	}
	return primes
}

// seqToHashes accumulates one hash per filter buffer over the sequence.
// posOffset shifts the position term so a mate pair hashes like the
// concatenation of both sequences.
func (d *Detector) seqToHashes(seq []byte, posOffset int, out []uint64) {
	for p, b := range seq {
		base := seqHashVal[b]
		pos := uint64(p + posOffset)
		for i := 0; i < d.bufNum; i++ {
			offset := ((p+posOffset)*d.bufNum + i) & d.offsetMask
			out[i] += d.primes[offset] * (base + pos)
		}
	}
}

// fetchOr atomically sets mask bits in *addr and returns the prior value.
func fetchOr(addr *uint32, mask uint32) uint32 {
	for {
		old := atomic.LoadUint32(addr)
		if old&mask != 0 || atomic.CompareAndSwapUint32(addr, old, old|mask) {
			return old
		}
	}
}

// applyFilter sets one bit per buffer and reports whether every bit was
// already set before this call.
func (d *Detector) applyFilter(hashes []uint64) bool {
	isDup := true
	for i, h := range hashes {
		pos := h % d.bufLenBits
		bytePos := uint64(i)*d.bufLenBytes + pos>>3
		mask := uint32(1) << ((pos & 7) + 8*(bytePos&3))
		prev := fetchOr(&d.bufs[bytePos>>2], mask)
		isDup = isDup && prev&mask != 0
	}
	return isDup
}

// CheckRead records the read's sequence and reports whether it was seen
// before. False positives are possible, false negatives are not.
func (d *Detector) CheckRead(r *fastq.Read) bool {
	var hashes [maxBufNum]uint64
	d.seqToHashes(gunsafe.StringToBytes(r.Seq), 0, hashes[:d.bufNum])
	isDup := d.applyFilter(hashes[:d.bufNum])
	atomic.AddUint64(&d.totalReads, 1)
	if isDup {
		atomic.AddUint64(&d.dupReads, 1)
	}
	return isDup
}

// CheckPair records a read pair, hashing it as the concatenation of both
// mates, and reports whether the pair was seen before.
func (d *Detector) CheckPair(r1, r2 *fastq.Read) bool {
	var hashes [maxBufNum]uint64
	d.seqToHashes(gunsafe.StringToBytes(r1.Seq), 0, hashes[:d.bufNum])
	d.seqToHashes(gunsafe.StringToBytes(r2.Seq), r1.Length(), hashes[:d.bufNum])
	isDup := d.applyFilter(hashes[:d.bufNum])
	atomic.AddUint64(&d.totalReads, 1)
	if isDup {
		atomic.AddUint64(&d.dupReads, 1)
	}
	return isDup
}

// DupRate returns the fraction of checked reads flagged as duplicates, or 0
// before any check.
func (d *Detector) DupRate() float64 {
	total := atomic.LoadUint64(&d.totalReads)
	if total == 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&d.dupReads)) / float64(total)
}
