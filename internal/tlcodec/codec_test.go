package tlcodec

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()

	w := NewWriter(0)
	w.PutInt32(-42)
	w.PutUint32(0xdeadbeef)
	w.PutInt64(-1234567890123)
	w.PutFloat64(3.14159)
	w.PutBool(true)
	w.PutBool(false)
	w.PutInt128([16]byte{1, 2, 3})
	w.PutInt256([32]byte{4, 5, 6})
	w.PutString("hello")
	w.PutString("")

	r := NewReader(w.Bytes())

	if v, err := r.Int32(); err != nil || v != -42 {
		t.Fatalf("Int32() = %d, %v", v, err)
	}
	if v, err := r.Uint32(); err != nil || v != 0xdeadbeef {
		t.Fatalf("Uint32() = %#x, %v", v, err)
	}
	if v, err := r.Int64(); err != nil || v != -1234567890123 {
		t.Fatalf("Int64() = %d, %v", v, err)
	}
	if v, err := r.Float64(); err != nil || v != 3.14159 {
		t.Fatalf("Float64() = %v, %v", v, err)
	}
	if v, err := r.Bool(); err != nil || v != true {
		t.Fatalf("Bool() = %v, %v", v, err)
	}
	if v, err := r.Bool(); err != nil || v != false {
		t.Fatalf("Bool() = %v, %v", v, err)
	}
	if v, err := r.Int128(); err != nil || v != ([16]byte{1, 2, 3}) {
		t.Fatalf("Int128() = %v, %v", v, err)
	}
	if v, err := r.Int256(); err != nil || v != ([32]byte{4, 5, 6}) {
		t.Fatalf("Int256() = %v, %v", v, err)
	}
	if v, err := r.String(); err != nil || v != "hello" {
		t.Fatalf("String() = %q, %v", v, err)
	}
	if v, err := r.String(); err != nil || v != "" {
		t.Fatalf("String() = %q, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestBytesPaddingShortForm(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		data    []byte
		wantLen int
	}{
		{"empty", nil, 4},
		{"one byte", []byte{0xAA}, 4},
		{"three bytes", []byte{1, 2, 3}, 4},
		{"four bytes", []byte{1, 2, 3, 4}, 8},
		{"253 bytes", make([]byte, 253), 256},
		{"254 bytes needs long form", make([]byte, 254), 260},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := NewWriter(0)
			w.PutBytes(tc.data)
			if got := len(w.Bytes()); got != tc.wantLen {
				t.Fatalf("encoded length = %d, want %d", got, tc.wantLen)
			}
			if got := len(w.Bytes()) % 4; got != 0 {
				t.Fatalf("encoded length %d not a multiple of 4", len(w.Bytes()))
			}

			r := NewReader(w.Bytes())
			got, err := r.Bytes()
			if err != nil {
				t.Fatalf("Bytes() error = %v", err)
			}
			if !bytes.Equal(got, tc.data) {
				t.Fatalf("Bytes() = %x, want %x", got, tc.data)
			}
			if r.Remaining() != 0 {
				t.Fatalf("Remaining() = %d, want 0", r.Remaining())
			}
		})
	}
}

func TestVectorHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	w := NewWriter(0)
	w.VectorHeader(3)
	w.PutInt32(1)
	w.PutInt32(2)
	w.PutInt32(3)

	r := NewReader(w.Bytes())
	n, err := r.VectorHeader()
	if err != nil {
		t.Fatalf("VectorHeader() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("VectorHeader() = %d, want 3", n)
	}
	for i := 0; i < n; i++ {
		v, err := r.Int32()
		if err != nil || v != int32(i+1) {
			t.Fatalf("element %d = %d, %v", i, v, err)
		}
	}
}

func TestVectorHeaderWrongConstructor(t *testing.T) {
	t.Parallel()

	w := NewWriter(0)
	w.PutUint32(0x12345678)
	r := NewReader(w.Bytes())

	_, err := r.VectorHeader()
	var uce *UnexpectedConstructorError
	if err == nil {
		t.Fatal("expected UnexpectedConstructorError, got nil")
	}
	if !errors.As(err, &uce) {
		t.Fatalf("error = %v, want *UnexpectedConstructorError", err)
	}
	if uce.ID != 0x12345678 {
		t.Fatalf("ID = %#x, want 0x12345678", uce.ID)
	}
}

func TestBareVectorHeader(t *testing.T) {
	t.Parallel()

	w := NewWriter(0)
	w.BareVectorHeader(2)
	w.PutString("a")
	w.PutString("b")

	r := NewReader(w.Bytes())
	n, err := r.BareVectorHeader()
	if err != nil || n != 2 {
		t.Fatalf("BareVectorHeader() = %d, %v", n, err)
	}
}

func TestReaderUnexpectedEOF(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{1, 2, 3})
	if _, err := r.Uint32(); err != ErrUnexpectedEOF {
		t.Fatalf("Uint32() error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestBoolConstructorIDs(t *testing.T) {
	t.Parallel()

	// These IDs are fixed points on the wire and must never drift.
	if BoolTrueID != 0x997275b5 {
		t.Fatalf("BoolTrueID = %#x, want 0x997275b5", BoolTrueID)
	}
	if BoolFalseID != 0xbc799737 {
		t.Fatalf("BoolFalseID = %#x, want 0xbc799737", BoolFalseID)
	}
	if VectorConstructorID != 0x1cb5c415 {
		t.Fatalf("VectorConstructorID = %#x, want 0x1cb5c415", VectorConstructorID)
	}
}
