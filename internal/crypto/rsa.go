package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RSAKey is an RSA public key (n, e) as published in Telegram's server
// public key list.
type RSAKey struct {
	N *big.Int
	E *big.Int
}

// NewRSAKey parses decimal n and e strings.
func NewRSAKey(n, e string) (*RSAKey, error) {
	nb, ok := new(big.Int).SetString(n, 10)
	if !ok {
		return nil, fmt.Errorf("crypto: invalid RSA modulus %q", n)
	}
	eb, ok := new(big.Int).SetString(e, 10)
	if !ok {
		return nil, fmt.Errorf("crypto: invalid RSA exponent %q", e)
	}
	return &RSAKey{N: nb, E: eb}, nil
}

func incrementBE(data []byte) {
	for i := len(data) - 1; i >= 0; i-- {
		data[i]++
		if data[i] != 0 {
			return
		}
	}
}

// RSAEncryptHashed RSA-encrypts data using the MTProto RSA-PAD scheme
// (spec §4.4's `encrypt_hashed`/`RSA-PAD`). data must be at most 144 bytes;
// it is the caller's responsibility to supply cryptographically secure
// random bytes.
func RSAEncryptHashed(data []byte, key *RSAKey, randomBytes *[224]byte) ([]byte, error) {
	if len(data) > 144 {
		return nil, fmt.Errorf("crypto: data too large for RSA-PAD: %d bytes", len(data))
	}

	dataWithPadding := make([]byte, 192)
	copy(dataWithPadding, data)
	copy(dataWithPadding[len(data):], randomBytes[:192-len(data)])

	dataPadReversed := make([]byte, 192)
	for i, b := range dataWithPadding {
		dataPadReversed[len(dataWithPadding)-1-i] = b
	}

	tempKey := append([]byte(nil), randomBytes[192:]...)

	var keyAESEncrypted []byte
	for {
		hash := sha256Sum(tempKey, dataWithPadding)
		dataWithHash := make([]byte, 0, 224)
		dataWithHash = append(dataWithHash, dataPadReversed...)
		dataWithHash = append(dataWithHash, hash[:]...)

		if err := igeEncrypt(dataWithHash, tempKey, make([]byte, 32)); err != nil {
			return nil, err
		}

		aesHash := sha256Sum(dataWithHash)
		xored := make([]byte, 32)
		for i := range xored {
			xored[i] = tempKey[i] ^ aesHash[i]
		}

		candidate := make([]byte, 0, 256)
		candidate = append(candidate, xored...)
		candidate = append(candidate, dataWithHash...)

		if new(big.Int).SetBytes(candidate).Cmp(key.N) < 0 {
			keyAESEncrypted = candidate
			break
		}
		incrementBE(tempKey)
	}

	payload := new(big.Int).SetBytes(keyAESEncrypted)
	encrypted := new(big.Int).Exp(payload, key.E, key.N)

	block := encrypted.Bytes()
	if len(block) < 256 {
		padded := make([]byte, 256)
		copy(padded[256-len(block):], block)
		block = padded
	}
	return block, nil
}

// SecureRandom224 fills a fresh 224-byte buffer with crypto/rand output, for
// use as RSAEncryptHashed's randomBytes argument.
func SecureRandom224() (*[224]byte, error) {
	var buf [224]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("crypto: rand.Read: %w", err)
	}
	return &buf, nil
}
