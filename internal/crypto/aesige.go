// Package crypto implements the cryptographic primitives MTProto 2.0 needs:
// AES-256-IGE, the RSA-PAD key exchange padding, Pollard-rho PQ
// factorization, the AuthKey type, and the v2 message encrypt/decrypt
// transform.
package crypto

import (
	"crypto/aes"
	"fmt"
)

// igeEncrypt runs AES-256 in Infinite Garble Extension mode (Telegram's own
// mode, not a standard library primitive) over data in place. key and iv
// must each be 32 bytes; iv is split into two 16-byte halves (the initial
// previous-ciphertext block, then the initial previous-plaintext block) as
// MTProto defines it: C_i = Enc(P_i xor C_{i-1}) xor P_{i-1}. len(data)
// must be a multiple of 16.
func igeEncrypt(data, key, iv []byte) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("crypto: aes.NewCipher: %w", err)
	}
	if len(data)%aes.BlockSize != 0 {
		return fmt.Errorf("crypto: ige data length %d not a multiple of %d", len(data), aes.BlockSize)
	}
	if len(iv) != 2*aes.BlockSize {
		return fmt.Errorf("crypto: ige iv must be %d bytes, got %d", 2*aes.BlockSize, len(iv))
	}

	cipherPrev := append([]byte(nil), iv[:aes.BlockSize]...)
	plainPrev := append([]byte(nil), iv[aes.BlockSize:]...)

	var buf [aes.BlockSize]byte
	for off := 0; off < len(data); off += aes.BlockSize {
		block16 := data[off : off+aes.BlockSize]

		xorBytes(buf[:], block16, cipherPrev)
		block.Encrypt(buf[:], buf[:])
		xorBytes(buf[:], buf[:], plainPrev)

		plainPrev = append(plainPrev[:0], block16...)
		copy(block16, buf[:])
		cipherPrev = append(cipherPrev[:0], block16...)
	}
	return nil
}

// igeDecrypt is the inverse of igeEncrypt.
func igeDecrypt(data, key, iv []byte) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("crypto: aes.NewCipher: %w", err)
	}
	if len(data)%aes.BlockSize != 0 {
		return fmt.Errorf("crypto: ige data length %d not a multiple of %d", len(data), aes.BlockSize)
	}
	if len(iv) != 2*aes.BlockSize {
		return fmt.Errorf("crypto: ige iv must be %d bytes, got %d", 2*aes.BlockSize, len(iv))
	}

	cipherPrev := append([]byte(nil), iv[:aes.BlockSize]...)
	plainPrev := append([]byte(nil), iv[aes.BlockSize:]...)

	var buf [aes.BlockSize]byte
	for off := 0; off < len(data); off += aes.BlockSize {
		block16 := data[off : off+aes.BlockSize]
		origCipher := append([]byte(nil), block16...)

		xorBytes(buf[:], block16, plainPrev)
		block.Decrypt(buf[:], buf[:])
		xorBytes(buf[:], buf[:], cipherPrev)

		copy(block16, buf[:])
		cipherPrev = origCipher
		plainPrev = append(plainPrev[:0], block16...)
	}
	return nil
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// IGEEncrypt is the exported entry point used by the v2 message transform
// and the RSA-PAD padding scheme.
func IGEEncrypt(data, key, iv []byte) error { return igeEncrypt(data, key, iv) }

// IGEDecrypt is the exported inverse of IGEEncrypt.
func IGEDecrypt(data, key, iv []byte) error { return igeDecrypt(data, key, iv) }
