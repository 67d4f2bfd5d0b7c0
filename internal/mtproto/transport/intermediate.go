package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// intermediateInit is the 4-byte marker sent once at connection start so
// the server knows to use Intermediate framing.
var intermediateInit = [4]byte{0xee, 0xee, 0xee, 0xee}

// intermediate implements MTProto's Intermediate framing: after the init
// marker, each frame is a 4-byte little-endian length followed by that
// many payload bytes. More proxy-friendly than Abridged since every frame
// after the first has a fixed-width header.
type intermediate struct {
	conn     io.ReadWriteCloser
	initSent bool
}

func newIntermediate(conn io.ReadWriteCloser) *intermediate {
	return &intermediate{conn: conn}
}

func (t *intermediate) Send(data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return ErrFrameTooLarge
	}
	if !t.initSent {
		if _, err := t.conn.Write(intermediateInit[:]); err != nil {
			return fmt.Errorf("transport/intermediate: write init: %w", err)
		}
		t.initSent = true
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := t.conn.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("transport/intermediate: write length: %w", err)
	}
	if _, err := t.conn.Write(data); err != nil {
		return fmt.Errorf("transport/intermediate: write payload: %w", err)
	}
	return nil
}

func (t *intermediate) Recv() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(t.conn, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("transport/intermediate: read length: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])

	buf := make([]byte, n)
	if _, err := io.ReadFull(t.conn, buf); err != nil {
		return nil, fmt.Errorf("transport/intermediate: read payload: %w", err)
	}
	return buf, nil
}

func (t *intermediate) Close() error {
	return t.conn.Close()
}
