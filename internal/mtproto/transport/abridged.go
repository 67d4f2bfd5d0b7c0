package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

// abridged implements MTProto's Abridged framing: a single 0xef init byte,
// then each frame prefixed by a length header counting 4-byte words — one
// byte for frames under 0x7f words, or 0x7f followed by a 3-byte
// little-endian word count for larger frames.
type abridged struct {
	conn     io.ReadWriteCloser
	initSent bool
}

func newAbridged(conn io.ReadWriteCloser) *abridged {
	return &abridged{conn: conn}
}

func (a *abridged) Send(data []byte) error {
	if len(data)%4 != 0 {
		return ErrNotMultipleOf4
	}
	if !a.initSent {
		if _, err := a.conn.Write([]byte{0xef}); err != nil {
			return fmt.Errorf("transport/abridged: write init byte: %w", err)
		}
		a.initSent = true
	}

	words := len(data) / 4
	var header []byte
	switch {
	case words < 0x7f:
		header = []byte{byte(words)}
	case words <= 0xffffff:
		header = []byte{0x7f, byte(words), byte(words >> 8), byte(words >> 16)}
	default:
		return ErrFrameTooLarge
	}

	if _, err := a.conn.Write(header); err != nil {
		return fmt.Errorf("transport/abridged: write header: %w", err)
	}
	if _, err := a.conn.Write(data); err != nil {
		return fmt.Errorf("transport/abridged: write payload: %w", err)
	}
	return nil
}

func (a *abridged) Recv() ([]byte, error) {
	var h [1]byte
	if _, err := io.ReadFull(a.conn, h[:]); err != nil {
		return nil, fmt.Errorf("transport/abridged: read header: %w", err)
	}

	var words int
	if h[0] < 0x7f {
		words = int(h[0])
	} else {
		var b [3]byte
		if _, err := io.ReadFull(a.conn, b[:]); err != nil {
			return nil, fmt.Errorf("transport/abridged: read extended length: %w", err)
		}
		words = int(b[0]) | int(b[1])<<8 | int(b[2])<<16

		// A word count of 1 after the 0x7f extended marker is not a
		// one-word payload: it marks a 4-byte transport-level error code
		// (spec §4.6). Treating it as a 1-word frame would silently hand
		// the caller 4 bytes of error code as if it were a reply.
		if words == 1 {
			var code [4]byte
			if _, err := io.ReadFull(a.conn, code[:]); err != nil {
				return nil, fmt.Errorf("transport/abridged: read error code: %w", err)
			}
			n := int32(binary.LittleEndian.Uint32(code[:]))
			return nil, fmt.Errorf("%w: code %d", ErrTransportError, n)
		}
		if words >= 0x8000 {
			return nil, fmt.Errorf("%w: word count %#x", ErrFrameCorrupt, words)
		}
	}

	buf := make([]byte, words*4)
	if _, err := io.ReadFull(a.conn, buf); err != nil {
		return nil, fmt.Errorf("transport/abridged: read payload: %w", err)
	}
	return buf, nil
}

func (a *abridged) Close() error {
	return a.conn.Close()
}
