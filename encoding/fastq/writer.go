package fastq

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

var newline = []byte{'\n'}

// Writer is a FASTQ file writer.
type Writer struct {
	w   io.Writer
	c   io.Closer
	err error
}

// NewWriter constructs a new FASTQ writer
// that writes reads to the underlying writer w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewGzipWriter constructs a FASTQ writer that gzip-compresses reads
// before writing them to w. Close must be called to flush the
// compressed stream.
func NewGzipWriter(w io.Writer) *Writer {
	zw := gzip.NewWriter(w)
	return &Writer{w: zw, c: zw}
}

// Write writes the read r in FASTQ format.
// An error is returned if the write failed.
func (w *Writer) Write(r *Read) error {
	w.writeln(r.ID)
	w.writeln(r.Seq)
	w.writeln(r.Unk)
	w.writeln(r.Qual)
	return w.err
}

// Close flushes any compressed output. It is a no-op for uncompressed
// writers; the underlying io.Writer is never closed.
func (w *Writer) Close() error {
	if w.c != nil {
		if err := w.c.Close(); w.err == nil {
			w.err = err
		}
		w.c = nil
	}
	return w.err
}

func (w *Writer) writeln(line string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}
