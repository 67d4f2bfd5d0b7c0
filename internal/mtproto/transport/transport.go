// Package transport implements the four MTProto byte-stream framings this
// client supports over a duplex connection: Abridged, Intermediate, Full,
// and Obfuscated2 (spec §6). Each framing turns an arbitrary io.ReadWriter
// into a Transport that exchanges whole frames instead of raw bytes; the
// encrypted session layer above never sees framing bytes.
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// Kind names one of the four supported framings, matching
// internal/config.TransportKind's string values.
type Kind string

// Supported framings (spec §6).
const (
	KindAbridged     Kind = "abridged"
	KindIntermediate Kind = "intermediate"
	KindFull         Kind = "full"
	KindObfuscated2  Kind = "obfuscated2"
)

// ErrUnknownKind is returned by Dial/Wrap for an unrecognized Kind.
var ErrUnknownKind = errors.New("transport: unknown transport kind")

// ErrFrameTooLarge is returned when an outgoing frame exceeds the
// framing's addressable length.
var ErrFrameTooLarge = errors.New("transport: frame exceeds maximum size")

// ErrNotMultipleOf4 is returned when Abridged framing is asked to send a
// payload whose length is not word-aligned, which the format cannot
// represent.
var ErrNotMultipleOf4 = errors.New("transport: abridged payload length must be a multiple of 4")

// ErrTransportError is returned when Abridged (or Obfuscated2, which
// shares its inner framing) receives the one-word marker that Telegram
// uses to carry a 4-byte transport-level error code instead of a payload
// (spec §4.6: "a word count equal to 1 after the 0x7f marker indicates a
// ... transport-level error code").
var ErrTransportError = errors.New("transport: server reported a transport-level error")

// ErrFrameCorrupt is returned when an Abridged word count is implausibly
// large (spec §4.6: "Word counts >= 0x8000 are implausible and must be
// rejected as framing corruption").
var ErrFrameCorrupt = errors.New("transport: implausible frame length, framing corrupt")

// Transport is a duplex byte channel exchanging complete MTProto frames
// (spec §6: "a duplex byte channel with send(bytes) and recv() → bytes
// returning one complete frame").
type Transport interface {
	// Send writes one frame. data's length must already be a multiple of
	// 4 (the padding the encryption layer or plaintext envelope applies).
	Send(data []byte) error

	// Recv blocks until one complete frame has been read.
	Recv() ([]byte, error)

	// Close releases the underlying connection.
	Close() error
}

// Dial opens a TCP connection to addr, applies TCP_NODELAY, and wraps it
// with the framing named by kind. secret configures Obfuscated2's
// per-connection MTProxy secret; it is ignored by the other framings.
func Dial(addr string, kind Kind, secret []byte) (Transport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := setNoDelay(tc); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return Wrap(conn, kind, secret)
}

// Wrap adapts an already-open connection with the framing named by kind.
func Wrap(conn io.ReadWriteCloser, kind Kind, secret []byte) (Transport, error) {
	switch kind {
	case KindAbridged:
		return newAbridged(conn), nil
	case KindIntermediate:
		return newIntermediate(conn), nil
	case KindFull:
		return newFull(conn), nil
	case KindObfuscated2:
		return newObfuscated2(conn, secret)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
