package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
)

// sha1Sum hashes the concatenation of parts with SHA-1.
func sha1Sum(parts ...[]byte) [20]byte {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// sha256Sum hashes the concatenation of parts with SHA-256.
func sha256Sum(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
