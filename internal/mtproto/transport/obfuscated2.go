package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// obfuscated2InitLen is the size of the handshake packet Obfuscated2 sends
// once, before any framed payload (spec §4.6, §9 "Obfuscated transport and
// proxy handshake").
const obfuscated2InitLen = 64

// abridgedTag is the 4-byte value Obfuscated2 embeds in its handshake to
// tell the server which inner framing follows the obfuscation layer. This
// client always negotiates Abridged underneath (spec §9: "The inner
// framing remains Abridged; the obfuscation layer is transparent to the
// envelope unwrapper").
var abridgedTag = [4]byte{0xef, 0xef, 0xef, 0xef}

// errReservedInitByte signals that a freshly generated Obfuscated2
// handshake packet collides with a reserved first byte and must be
// regenerated; it never escapes newObfuscated2.
var errReservedInitByte = errors.New("transport/obfuscated2: reserved first byte, regenerating")

// obfuscated2 implements MTProto's Obfuscated2 framing: a 64-byte
// handshake packet derives a pair of rolling AES-256-CTR keystreams (one
// per direction) from random material in the packet plus an optional
// MTProxy secret, then every subsequent byte — including the Abridged
// framing headers — is XORed with the appropriate stream (spec §4.6, §9).
type obfuscated2 struct {
	conn         io.ReadWriteCloser
	encStream    cipher.Stream
	decStream    cipher.Stream
	initSent     bool
	handshakeOut [obfuscated2InitLen]byte
}

// newObfuscated2 generates a fresh handshake packet, derives the two
// keystreams, and sends the (self-)encrypted packet once Send is first
// called. secret is the optional 16-byte MTProxy secret mixed into key
// derivation; nil or empty means no proxy secret.
func newObfuscated2(conn io.ReadWriteCloser, secret []byte) (*obfuscated2, error) {
	var init [obfuscated2InitLen]byte
	for {
		if _, err := rand.Read(init[:]); err != nil {
			return nil, fmt.Errorf("transport/obfuscated2: rand.Read: %w", err)
		}
		if err := validateInit(init); err != nil {
			if errors.Is(err, errReservedInitByte) {
				continue
			}
			return nil, err
		}
		break
	}
	copy(init[56:60], abridgedTag[:])

	encKey, encIV := deriveKeyIV(init[8:40], init[40:56], secret)
	var reversed [48]byte
	reverseInto(reversed[:32], init[8:40])
	reverseInto(reversed[32:], init[40:56])
	decKey, decIV := deriveKeyIV(reversed[:32], reversed[32:], secret)

	encBlock, err := aes.NewCipher(encKey[:])
	if err != nil {
		return nil, fmt.Errorf("transport/obfuscated2: new encrypt cipher: %w", err)
	}
	decBlock, err := aes.NewCipher(decKey[:])
	if err != nil {
		return nil, fmt.Errorf("transport/obfuscated2: new decrypt cipher: %w", err)
	}

	o := &obfuscated2{
		conn:      conn,
		encStream: cipher.NewCTR(encBlock, encIV[:]),
		decStream: cipher.NewCTR(decBlock, decIV[:]),
	}

	encrypted := init
	o.encStream.XORKeyStream(encrypted[56:], init[56:])
	o.handshakeOut = encrypted
	return o, nil
}

func validateInit(init [obfuscated2InitLen]byte) error {
	switch init[0] {
	case 0xef, 0x44, 0x45, 0x4f, 0x48:
		return errReservedInitByte
	}
	switch {
	case init[0] == 0x16 && init[1] == 0x03 && init[2] == 0x03:
		return errReservedInitByte // looks like a TLS record header
	}
	return nil
}

func deriveKeyIV(keyMaterial, ivMaterial, secret []byte) (key [32]byte, iv [16]byte) {
	if len(secret) > 0 {
		sum := sha256.Sum256(append(append([]byte(nil), keyMaterial...), secret...))
		copy(key[:], sum[:])
	} else {
		copy(key[:], keyMaterial)
	}
	copy(iv[:], ivMaterial)
	return key, iv
}

func reverseInto(dst, src []byte) {
	for i, b := range src {
		dst[len(src)-1-i] = b
	}
}

func (o *obfuscated2) Send(data []byte) error {
	if !o.initSent {
		if _, err := o.conn.Write(o.handshakeOut[:]); err != nil {
			return fmt.Errorf("transport/obfuscated2: write handshake: %w", err)
		}
		o.initSent = true
	}
	return o.sendFramed(data)
}

// sendFramed builds the Abridged header+payload in memory (so the
// keystream can be applied to header bytes too, per spec) and writes it
// through the encrypt stream.
func (o *obfuscated2) sendFramed(data []byte) error {
	if len(data)%4 != 0 {
		return ErrNotMultipleOf4
	}
	words := len(data) / 4
	var frame []byte
	switch {
	case words < 0x7f:
		frame = append([]byte{byte(words)}, data...)
	case words <= 0xffffff:
		frame = append([]byte{0x7f, byte(words), byte(words >> 8), byte(words >> 16)}, data...)
	default:
		return ErrFrameTooLarge
	}
	out := make([]byte, len(frame))
	o.encStream.XORKeyStream(out, frame)
	if _, err := o.conn.Write(out); err != nil {
		return fmt.Errorf("transport/obfuscated2: write frame: %w", err)
	}
	return nil
}

func (o *obfuscated2) Recv() ([]byte, error) {
	var h [1]byte
	if err := o.readDecrypted(h[:]); err != nil {
		return nil, fmt.Errorf("transport/obfuscated2: read header: %w", err)
	}

	var words int
	if h[0] < 0x7f {
		words = int(h[0])
	} else {
		var b [3]byte
		if err := o.readDecrypted(b[:]); err != nil {
			return nil, fmt.Errorf("transport/obfuscated2: read extended length: %w", err)
		}
		words = int(b[0]) | int(b[1])<<8 | int(b[2])<<16
		if words == 1 {
			var code [4]byte
			if err := o.readDecrypted(code[:]); err != nil {
				return nil, fmt.Errorf("transport/obfuscated2: read error code: %w", err)
			}
			return nil, fmt.Errorf("%w: code %d", ErrTransportError, int32(binary.LittleEndian.Uint32(code[:])))
		}
		if words >= 0x8000 {
			return nil, fmt.Errorf("%w: word count %#x", ErrFrameCorrupt, words)
		}
	}

	buf := make([]byte, words*4)
	if err := o.readDecrypted(buf); err != nil {
		return nil, fmt.Errorf("transport/obfuscated2: read payload: %w", err)
	}
	return buf, nil
}

func (o *obfuscated2) readDecrypted(dst []byte) error {
	raw := make([]byte, len(dst))
	if _, err := io.ReadFull(o.conn, raw); err != nil {
		return err
	}
	o.decStream.XORKeyStream(dst, raw)
	return nil
}

func (o *obfuscated2) Close() error {
	return o.conn.Close()
}
