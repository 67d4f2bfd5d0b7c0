package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
)

// pipeConn adapts a pair of net.Pipe ends into the io.ReadWriteCloser each
// framing expects, letting a single goroutine act as "the server" for
// round-trip tests without a real socket.
func pipeConn(t *testing.T) (client, server net.Conn) {
	t.Helper()
	c, s := net.Pipe()
	t.Cleanup(func() {
		c.Close()
		s.Close()
	})
	return c, s
}

func TestFramingsRoundTrip(t *testing.T) {
	lengths := []int{0, 4, 8, 252, 256, 1024, 4 * 40000}

	for _, kind := range []Kind{KindAbridged, KindIntermediate, KindFull, KindObfuscated2} {
		t.Run(string(kind), func(t *testing.T) {
			for _, n := range lengths {
				payload := bytes.Repeat([]byte{0xAB}, n)

				clientConn, serverConn := pipeConn(t)
				client, err := Wrap(clientConn, kind, nil)
				if err != nil {
					t.Fatalf("wrap client: %v", err)
				}
				server, err := Wrap(serverConn, kind, nil)
				if err != nil {
					t.Fatalf("wrap server: %v", err)
				}

				errc := make(chan error, 1)
				go func() { errc <- client.Send(payload) }()

				got, err := server.Recv()
				if err != nil {
					t.Fatalf("recv (len=%d): %v", n, err)
				}
				if err := <-errc; err != nil {
					t.Fatalf("send (len=%d): %v", n, err)
				}
				if !bytes.Equal(got, payload) {
					t.Fatalf("len=%d: round-trip mismatch: got %d bytes, want %d", n, len(got), len(payload))
				}
			}
		})
	}
}

func TestObfuscated2RoundTripWithSecret(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 16)
	clientConn, serverConn := pipeConn(t)

	client, err := Wrap(clientConn, KindObfuscated2, secret)
	if err != nil {
		t.Fatalf("wrap client: %v", err)
	}
	server, err := Wrap(serverConn, KindObfuscated2, secret)
	if err != nil {
		t.Fatalf("wrap server: %v", err)
	}

	payload := []byte("ping\x00\x00\x00\x00")
	errc := make(chan error, 1)
	go func() { errc <- client.Send(payload) }()

	got, err := server.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("send: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round-trip mismatch with secret")
	}
}

func TestAbridgedTransportErrorCode(t *testing.T) {
	clientConn, serverConn := pipeConn(t)
	srv := newAbridged(serverConn)

	go func() {
		// 0x7f extended marker, word count 1, then a 4-byte little-endian
		// error code (spec §4.6).
		clientConn.Write([]byte{0x7f, 0x01, 0x00, 0x00})
		clientConn.Write([]byte{0xd6, 0xff, 0xff, 0xff}) // -42 LE
	}()

	_, err := srv.Recv()
	if !errors.Is(err, ErrTransportError) {
		t.Fatalf("want ErrTransportError, got %v", err)
	}
}

func TestAbridgedFrameCorruptOnImplausibleLength(t *testing.T) {
	clientConn, serverConn := pipeConn(t)
	srv := newAbridged(serverConn)

	go func() {
		clientConn.Write([]byte{0x7f, 0x00, 0x80, 0x00}) // words = 0x8000
	}()

	_, err := srv.Recv()
	if !errors.Is(err, ErrFrameCorrupt) {
		t.Fatalf("want ErrFrameCorrupt, got %v", err)
	}
}

func TestFullCRCMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{12, 0, 0, 0}) // length = 12 (overhead only, no payload)
	buf.Write([]byte{0, 0, 0, 0})  // seqno
	buf.Write([]byte{1, 2, 3, 4})  // garbage crc

	corrupt := newFull(struct {
		io.Reader
		io.Writer
		io.Closer
	}{Reader: &buf, Writer: io.Discard, Closer: io.NopCloser(nil)})
	if _, err := corrupt.Recv(); !errors.Is(err, ErrCRCMismatch) {
		t.Fatalf("want ErrCRCMismatch, got %v", err)
	}
}

func TestUnknownKind(t *testing.T) {
	_, err := Wrap(nil, Kind("bogus"), nil)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("want ErrUnknownKind, got %v", err)
	}
}
