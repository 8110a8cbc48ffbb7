// Package binio reads and writes the little-endian primitives shared by the
// vocabulary, vector store, and index file formats.
//
// Reader and Writer keep the first error they encounter (sticky error), so callers
// can encode or decode a whole structure and check Err once at the end.
package binio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrTruncated is returned when input ends in the middle of a value.
var ErrTruncated = errors.New("binio: truncated input")

// ErrStringTooLong is returned when a length prefix exceeds MaxStringLen.
var ErrStringTooLong = errors.New("binio: string length prefix too large")

// MaxStringLen bounds length-prefixed strings so corrupt prefixes cannot force huge allocations.
const MaxStringLen = 1 << 20

// Writer encodes primitives to an io.Writer.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [binary.MaxVarintLen64]byte
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	w.err = err
}

// Int32 writes v as 4 little-endian bytes.
func (w *Writer) Int32(v int32) {
	binary.LittleEndian.PutUint32(w.buf[:4], uint32(v))
	w.write(w.buf[:4])
}

// Float64 writes v as 8 little-endian IEEE 754 bytes.
func (w *Writer) Float64(v float64) {
	binary.LittleEndian.PutUint64(w.buf[:8], math.Float64bits(v))
	w.write(w.buf[:8])
}

// String writes s as a 7-bit varint byte length followed by its UTF-8 bytes.
func (w *Writer) String(s string) {
	n := binary.PutUvarint(w.buf[:], uint64(len(s)))
	w.write(w.buf[:n])
	if len(s) > 0 {
		w.write([]byte(s))
	}
}

// Count returns the number of bytes written so far.
func (w *Writer) Count() int64 { return w.n }

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

// Reader decodes primitives from an io.Reader.
type Reader struct {
	r   io.Reader
	n   int64
	err error
	buf [8]byte
}

// NewReader creates a Reader over r. Callers should buffer r themselves when it
// is an unbuffered file.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, p)
	r.n += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrTruncated
		}
		r.err = err
		return false
	}
	return true
}

// Int32 reads 4 little-endian bytes.
func (r *Reader) Int32() int32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(r.buf[:4]))
}

// Float64 reads 8 little-endian IEEE 754 bytes.
func (r *Reader) Float64() float64 {
	if !r.read(r.buf[:8]) {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.buf[:8]))
}

// String reads a 7-bit varint length-prefixed UTF-8 string.
func (r *Reader) String() string {
	var length uint64
	var shift uint
	for i := 0; ; i++ {
		if i == binary.MaxVarintLen32 {
			r.fail(ErrStringTooLong)
			return ""
		}
		if !r.read(r.buf[:1]) {
			return ""
		}
		b := r.buf[0]
		length |= uint64(b&0x7f) << shift
		if b < 0x80 {
			break
		}
		shift += 7
	}
	if length > MaxStringLen {
		r.fail(ErrStringTooLong)
		return ""
	}
	if length == 0 {
		return ""
	}
	p := make([]byte, length)
	if !r.read(p) {
		return ""
	}
	return string(p)
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Count returns the number of bytes consumed so far.
func (r *Reader) Count() int64 { return r.n }

// Err returns the first read error.
func (r *Reader) Err() error { return r.err }
