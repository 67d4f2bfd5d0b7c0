package crypto

import "fmt"

// AuthKey is Telegram's 256-byte authorization key, derived once from the
// DH handshake (spec §4.4/§4.5) and reused for every encrypted message
// afterwards (spec §4.6/§4.7).
type AuthKey struct {
	data    [256]byte
	auxHash [8]byte
	keyID   [8]byte
}

// NewAuthKey derives an AuthKey from the raw 256-byte DH output g_ab.
func NewAuthKey(data [256]byte) AuthKey {
	sha := sha1Sum(data[:])
	var auxHash, keyID [8]byte
	copy(auxHash[:], sha[:8])
	copy(keyID[:], sha[12:20])
	return AuthKey{data: data, auxHash: auxHash, keyID: keyID}
}

// Bytes returns the raw 256-byte key.
func (k AuthKey) Bytes() [256]byte { return k.data }

// KeyID returns the 8-byte key identifier (SHA-1(key)[12:20]) used to tag
// every encrypted message with the key it was encrypted under.
func (k AuthKey) KeyID() [8]byte { return k.keyID }

// CalcNewNonceHash computes the new-nonce hash needed to verify a
// DhGenOk/Retry/Fail response (spec §4.5).
func (k AuthKey) CalcNewNonceHash(newNonce [32]byte, number byte) [16]byte {
	sha := sha1Sum(newNonce[:], []byte{number}, k.auxHash[:])
	var out [16]byte
	copy(out[:], sha[4:])
	return out
}

// String renders the key by its ID only, never its secret material.
func (k AuthKey) String() string {
	return fmt.Sprintf("AuthKey(id=%016x)", k.keyID)
}
