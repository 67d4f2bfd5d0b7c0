package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Errors returned by DecryptDataV2.
var (
	ErrInvalidBuffer      = errors.New("crypto: invalid ciphertext buffer length")
	ErrAuthKeyMismatch    = errors.New("crypto: auth_key_id mismatch")
	ErrMessageKeyMismatch = errors.New("crypto: msg_key mismatch")
)

// side selects which half of the auth key material and derivation offsets
// apply, per spec §4.6 ("x = 0 for messages from client to server, 8 for
// server to client").
type side int

const (
	sideClient side = 0
	sideServer side = 8
)

func (s side) x() int { return int(s) }

func calcKey(authKey *AuthKey, msgKey [16]byte, s side) (key, iv [32]byte) {
	x := s.x()
	shaA := sha256Sum(msgKey[:], authKey.data[x:x+36])
	shaB := sha256Sum(authKey.data[40+x:40+x+36], msgKey[:])

	copy(key[:8], shaA[:8])
	copy(key[8:24], shaB[8:24])
	copy(key[24:], shaA[24:])

	copy(iv[:8], shaB[:8])
	copy(iv[8:24], shaA[8:24])
	copy(iv[24:], shaB[24:])

	return key, iv
}

func paddingLen(n int) int {
	return 16 + (16 - (n % 16))
}

// EncryptDataV2 encrypts plaintext under authKey using the MTProto 2.0
// message transform (spec §4.6) and returns key_id || msg_key || ciphertext.
// plaintext is the fully-assembled message body (header + payload) described
// in spec §4.3; before encryption it is extended with paddingLen random
// bytes, a count fixed by len(plaintext) that brings the total to a
// multiple of 16.
func EncryptDataV2(plaintext []byte, authKey *AuthKey) ([]byte, error) {
	pad := paddingLen(len(plaintext))
	padding := make([]byte, pad)
	if _, err := rand.Read(padding); err != nil {
		return nil, fmt.Errorf("crypto: rand.Read: %w", err)
	}

	buf := make([]byte, len(plaintext)+pad)
	copy(buf, plaintext)
	copy(buf[len(plaintext):], padding)

	x := sideClient.x()
	msgKeyLarge := sha256Sum(authKey.data[88+x:88+x+32], buf)
	var msgKey [16]byte
	copy(msgKey[:], msgKeyLarge[8:24])

	key, iv := calcKey(authKey, msgKey, sideClient)
	if err := igeEncrypt(buf, key[:], iv[:]); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 8+16+len(buf))
	out = append(out, authKey.keyID[:]...)
	out = append(out, msgKey[:]...)
	out = append(out, buf...)
	return out, nil
}

// DecryptDataV2 decrypts a server-to-client frame, deriving msg_key and the
// AES key with x = 8, so it does not invert EncryptDataV2's client-to-server
// output. It validates both the auth_key_id and the recomputed msg_key
// before returning the plaintext.
// The returned slice aliases buffer.
func DecryptDataV2(buffer []byte, authKey *AuthKey) ([]byte, error) {
	if len(buffer) < 24 || (len(buffer)-24)%16 != 0 {
		return nil, ErrInvalidBuffer
	}
	keyID := authKey.KeyID()
	if !bytesEqual(keyID[:], buffer[:8]) {
		return nil, ErrAuthKeyMismatch
	}

	var msgKey [16]byte
	copy(msgKey[:], buffer[8:24])

	key, iv := calcKey(authKey, msgKey, sideServer)
	body := buffer[24:]
	if err := igeDecrypt(body, key[:], iv[:]); err != nil {
		return nil, err
	}

	x := sideServer.x()
	ourKey := sha256Sum(authKey.data[88+x:88+x+32], body)
	if !bytesEqual(msgKey[:], ourKey[8:24]) {
		return nil, ErrMessageKeyMismatch
	}
	return body, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// GenerateKeyDataFromNonce derives the (key, iv) pair used to decrypt
// ServerDHParams.encrypted_answer from the client/server nonces exchanged
// in the PQ step (spec §4.4).
func GenerateKeyDataFromNonce(serverNonce [16]byte, newNonce [32]byte) (key, iv [32]byte) {
	h1 := sha1Sum(newNonce[:], serverNonce[:])
	h2 := sha1Sum(serverNonce[:], newNonce[:])
	h3 := sha1Sum(newNonce[:], newNonce[:])

	copy(key[:20], h1[:])
	copy(key[20:], h2[:12])

	copy(iv[:8], h2[12:])
	copy(iv[8:28], h3[:])
	copy(iv[28:], newNonce[:4])

	return key, iv
}
