// Package tlcodec implements the MTProto binary serialization primitives:
// fixed-width integers, length-prefixed byte strings, and boxed/bare vectors
// (see https://core.telegram.org/mtproto/serialize).
//
// Generated schema code (internal/tlgen output, or the hand-written types in
// the tl package) builds on top of Reader/Writer rather than reimplementing
// the wire format itself.
package tlcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// VectorConstructorID is the constructor ID prefixing every boxed Vector<T>.
const VectorConstructorID uint32 = 0x1cb5c415

// BoolTrueID and BoolFalseID are the two boxed constructor IDs for the
// MTProto Bool type.
const (
	BoolTrueID  uint32 = 0x997275b5
	BoolFalseID uint32 = 0xbc799737
)

// ErrUnexpectedEOF is returned when a read crosses the end of the buffer.
var ErrUnexpectedEOF = errors.New("tlcodec: unexpected end of buffer")

// UnexpectedConstructorError is returned when a leading constructor ID does
// not match any variant of the expected boxed type.
type UnexpectedConstructorError struct {
	ID uint32
}

func (e *UnexpectedConstructorError) Error() string {
	return fmt.Sprintf("tlcodec: unexpected constructor id %#08x", e.ID)
}

// NewUnexpectedConstructor builds an UnexpectedConstructorError for id.
func NewUnexpectedConstructor(id uint32) error {
	return &UnexpectedConstructorError{ID: id}
}

// Writer accumulates a TL-serialized byte stream. The zero value is ready
// to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity preallocated.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// PutRaw appends raw bytes unconditionally.
func (w *Writer) PutRaw(b []byte) { w.buf = append(w.buf, b...) }

// PutUint32 appends id in little-endian form; used for constructor IDs.
func (w *Writer) PutUint32(id uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], id)
	w.buf = append(w.buf, b[:]...)
}

// PutInt32 appends a little-endian i32.
func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }

// PutInt64 appends a little-endian i64.
func (w *Writer) PutInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

// PutUint64 appends a little-endian u64.
func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutFloat64 appends an IEEE-754 little-endian double.
func (w *Writer) PutFloat64(v float64) {
	w.PutUint64(math.Float64bits(v))
}

// PutBool appends the boxed constructor ID for a Bool value.
func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint32(BoolTrueID)
	} else {
		w.PutUint32(BoolFalseID)
	}
}

// PutInt128 appends a raw 16-byte blob.
func (w *Writer) PutInt128(v [16]byte) { w.buf = append(w.buf, v[:]...) }

// PutInt256 appends a raw 32-byte blob.
func (w *Writer) PutInt256(v [32]byte) { w.buf = append(w.buf, v[:]...) }

// PutBytes appends a length-prefixed byte string, zero-padded so that the
// total encoded length (prefix + payload + padding) is a multiple of 4.
//
// Values of length <= 253 use a single length byte; longer values use a
// 0xfe marker followed by a 24-bit little-endian length.
func (w *Writer) PutBytes(data []byte) {
	n := len(data)
	var header []byte
	if n <= 253 {
		header = []byte{byte(n)}
	} else {
		header = []byte{0xfe, byte(n), byte(n >> 8), byte(n >> 16)}
	}
	total := len(header) + n
	pad := (4 - total%4) % 4

	w.buf = append(w.buf, header...)
	w.buf = append(w.buf, data...)
	for range pad {
		w.buf = append(w.buf, 0)
	}
}

// PutString appends s using the same encoding as PutBytes.
func (w *Writer) PutString(s string) { w.PutBytes([]byte(s)) }

// VectorHeader appends the boxed Vector<T> constructor ID and element count.
// Callers serialize count elements afterwards.
func (w *Writer) VectorHeader(count int) {
	w.PutUint32(VectorConstructorID)
	w.PutInt32(int32(count))
}

// BareVectorHeader appends only the element count, for bare vector<T> fields.
func (w *Writer) BareVectorHeader(count int) {
	w.PutInt32(int32(count))
}
