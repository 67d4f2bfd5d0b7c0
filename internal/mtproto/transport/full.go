package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// ErrCRCMismatch is returned by Full.Recv when a frame's trailing CRC-32
// does not match its computed checksum.
var ErrCRCMismatch = errors.New("transport/full: CRC-32 mismatch")

// ErrFrameTooShort is returned by Full.Recv when a frame's declared length
// is too small to hold the fixed length/seqno/crc overhead.
var ErrFrameTooShort = errors.New("transport/full: frame shorter than framing overhead")

const fullOverhead = 12 // 4-byte length + 4-byte seqno + 4-byte crc

// full implements MTProto's Full framing: no init byte; each frame is
// [length:u32][seqno:u32][payload][crc32:u32], where length counts the
// whole frame including itself, and crc32 covers every preceding byte.
// sendSeqNo numbers outgoing frames; recvSeqNo counts received frames, and
// Recv does not compare a frame's seqno against it.
type full struct {
	conn      io.ReadWriteCloser
	sendSeqNo uint32
	recvSeqNo uint32
}

func newFull(conn io.ReadWriteCloser) *full {
	return &full{conn: conn}
}

func (t *full) Send(data []byte) error {
	total := len(data) + fullOverhead
	if total < 0 || uint64(total) > 0xffffffff {
		return ErrFrameTooLarge
	}

	packet := make([]byte, total)
	binary.LittleEndian.PutUint32(packet[0:4], uint32(total))
	binary.LittleEndian.PutUint32(packet[4:8], t.sendSeqNo)
	copy(packet[8:], data)
	t.sendSeqNo++

	crc := crc32.ChecksumIEEE(packet[:total-4])
	binary.LittleEndian.PutUint32(packet[total-4:], crc)

	if _, err := t.conn.Write(packet); err != nil {
		return fmt.Errorf("transport/full: write: %w", err)
	}
	return nil
}

func (t *full) Recv() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(t.conn, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("transport/full: read length: %w", err)
	}
	total := binary.LittleEndian.Uint32(lenBuf[:])
	if total < fullOverhead {
		return nil, ErrFrameTooShort
	}

	rest := make([]byte, total-4)
	if _, err := io.ReadFull(t.conn, rest); err != nil {
		return nil, fmt.Errorf("transport/full: read body: %w", err)
	}

	body, wantCRC := rest[:len(rest)-4], binary.LittleEndian.Uint32(rest[len(rest)-4:])
	packet := append(append([]byte(nil), lenBuf[:]...), body...)
	if got := crc32.ChecksumIEEE(packet); got != wantCRC {
		return nil, fmt.Errorf("%w: got %#08x, want %#08x", ErrCRCMismatch, got, wantCRC)
	}

	t.recvSeqNo++
	return body[4:], nil // strip the embedded seqno, keep the payload
}

func (t *full) Close() error {
	return t.conn.Close()
}
