package fastq

import (
	"bytes"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
)

func TestReadTrim(t *testing.T) {
	r := Read{ID: "@r", Seq: "ACGTACGT", Unk: "+", Qual: "ABCDEFGH"}
	r.Trim(5)
	expect.EQ(t, r.Seq, "ACGTA")
	expect.EQ(t, r.Qual, "ABCDE")
	expect.EQ(t, r.Length(), 5)
	r.Trim(0)
	expect.EQ(t, r.Seq, "")
	expect.EQ(t, r.Qual, "")
	assert.Panics(t, func() { r.Trim(1) })
	assert.Panics(t, func() { r.Trim(-1) })
}

func TestReadReverseComplement(t *testing.T) {
	r := Read{ID: "@r", Seq: "ACGTN", Unk: "+", Qual: "ABCDE"}
	rc := r.ReverseComplement()
	expect.EQ(t, rc.Seq, "NACGT")
	expect.EQ(t, rc.Qual, "EDCBA")
	expect.EQ(t, rc.ID, r.ID)
	// Receiver unchanged.
	expect.EQ(t, r.Seq, "ACGTN")
	expect.EQ(t, r.Qual, "ABCDE")
}

func TestGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewGzipWriter(&buf)
	s := stringScanner(fq)
	var r Read
	n := 0
	for s.Scan(&r) {
		if err := w.Write(&r); err != nil {
			t.Fatal(err)
		}
		n++
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	zr, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	s = NewScanner(zr, All)
	m := 0
	for s.Scan(&r) {
		m++
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	expect.EQ(t, m, n)
}

func TestNewReaderPlain(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte(fq)))
	if err != nil {
		t.Fatal(err)
	}
	s := NewScanner(r, All)
	var read Read
	n := 0
	for s.Scan(&read) {
		n++
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	expect.EQ(t, n, 6)
}
