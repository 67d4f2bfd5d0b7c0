package tlcodec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader walks a TL-serialized byte stream, consuming primitives in order.
// It never panics: every method that can run past the end of buf returns
// ErrUnexpectedEOF.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential reading. buf is not copied; the caller
// must not mutate it while the Reader is in use.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Rest returns, without advancing, every byte not yet consumed.
func (r *Reader) Rest() []byte { return r.buf[r.pos:] }

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Take consumes and returns the next n raw bytes, for fields whose length
// is carried out-of-band (e.g. a msg_container entry's bytes field, sized
// by the length recorded alongside it rather than a TL length prefix).
func (r *Reader) Take(n int) ([]byte, error) {
	return r.take(n)
}

// Uint32 reads a little-endian u32, typically a constructor ID.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int32 reads a little-endian i32.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Int64 reads a little-endian i64.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Uint64 reads a little-endian u64.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Float64 reads an IEEE-754 little-endian double.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Bool reads a boxed Bool constructor and reports its value. Any other
// constructor ID is an UnexpectedConstructorError.
func (r *Reader) Bool() (bool, error) {
	id, err := r.Uint32()
	if err != nil {
		return false, err
	}
	switch id {
	case BoolTrueID:
		return true, nil
	case BoolFalseID:
		return false, nil
	default:
		return false, NewUnexpectedConstructor(id)
	}
}

// Int128 reads a raw 16-byte blob.
func (r *Reader) Int128() (v [16]byte, err error) {
	b, err := r.take(16)
	if err != nil {
		return v, err
	}
	copy(v[:], b)
	return v, nil
}

// Int256 reads a raw 32-byte blob.
func (r *Reader) Int256() (v [32]byte, err error) {
	b, err := r.take(32)
	if err != nil {
		return v, err
	}
	copy(v[:], b)
	return v, nil
}

// Bytes reads a length-prefixed byte string, consuming the same padding
// PutBytes produced. The returned slice aliases the reader's buffer.
func (r *Reader) Bytes() ([]byte, error) {
	first, err := r.take(1)
	if err != nil {
		return nil, err
	}

	var n, headerLen int
	if first[0] == 0xfe {
		rest, err := r.take(3)
		if err != nil {
			return nil, err
		}
		n = int(rest[0]) | int(rest[1])<<8 | int(rest[2])<<16
		headerLen = 4
	} else {
		n = int(first[0])
		headerLen = 1
	}

	data, err := r.take(n)
	if err != nil {
		return nil, err
	}

	total := headerLen + n
	pad := (4 - total%4) % 4
	if pad > 0 {
		if _, err := r.take(pad); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// String reads a length-prefixed byte string and converts it to a string.
func (r *Reader) String() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VectorHeader consumes a boxed Vector<T> constructor and returns the
// element count. It returns UnexpectedConstructorError if the leading ID is
// not VectorConstructorID.
func (r *Reader) VectorHeader() (int, error) {
	id, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	if id != VectorConstructorID {
		return 0, NewUnexpectedConstructor(id)
	}
	count, err := r.Int32()
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, fmt.Errorf("tlcodec: negative vector length %d", count)
	}
	return int(count), nil
}

// BareVectorHeader reads only the element count, for bare vector<T> fields
// whose boxing is implied by the enclosing constructor.
func (r *Reader) BareVectorHeader() (int, error) {
	count, err := r.Int32()
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, fmt.Errorf("tlcodec: negative vector length %d", count)
	}
	return int(count), nil
}
