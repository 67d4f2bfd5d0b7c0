package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"math/big"

	"golang.org/x/crypto/pbkdf2"
)

// SRPParams is the server-provided 2FA challenge state needed to solve one
// auth.checkPassword round (spec §4.4's SRP reference detail,
// https://core.telegram.org/api/srp). P and G define the MTProto group;
// B is the server's public value (srp_B); Salt1/Salt2 are applied to the
// password in sequence before PBKDF2.
type SRPParams struct {
	G     int32
	P     []byte
	Salt1 []byte
	Salt2 []byte
	B     []byte
}

// sh is Telegram's salted hash: SHA256(salt || data || salt).
func sh(data, salt []byte) [32]byte {
	return sha256Sum(salt, data, salt)
}

// passwordHash derives x = PH2(password, salt1, salt2), the SRP private
// exponent's password-derived half.
func passwordHash(password string, salt1, salt2 []byte) [32]byte {
	inner := sh([]byte(password), salt1)
	ph1 := sh(inner[:], salt2)
	stretched := pbkdf2.Key(ph1[:], salt1, 100000, 64, sha512.New)
	return sh(stretched, salt2)
}

// padBE returns b as a big-endian buffer of exactly n bytes, left-padded
// with zeros. b must not already exceed n bytes.
func padBE(b []byte, n int) []byte {
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}

// xor32 XORs two 32-byte digests.
func xor32(a, b [32]byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// SolveSRP runs one full client-side SRP exchange against params and
// returns the 256-byte g^a (A) and 32-byte M1 proof that
// tl.InputCheckPasswordSRP carries back to auth.checkPassword.
func SolveSRP(password string, params SRPParams) (a [256]byte, m1 [32]byte, err error) {
	p := new(big.Int).SetBytes(params.P)
	g := big.NewInt(int64(params.G))
	gB := new(big.Int).SetBytes(params.B)

	one := big.NewInt(1)
	pMinus1 := new(big.Int).Sub(p, one)
	if gB.Cmp(one) <= 0 || gB.Cmp(pMinus1) >= 0 {
		return a, m1, fmt.Errorf("crypto: srp: server B out of range")
	}

	exp, err := randBigInt(256)
	if err != nil {
		return a, m1, err
	}

	gPadded := padBE(g.Bytes(), 256)
	pPadded := padBE(p.Bytes(), 256)
	gA := padBE(new(big.Int).Exp(g, exp, p).Bytes(), 256)
	bPadded := padBE(gB.Bytes(), 256)

	u := sha256Sum(gA, bPadded)
	uInt := new(big.Int).SetBytes(u[:])

	x := passwordHash(password, params.Salt1, params.Salt2)
	xInt := new(big.Int).SetBytes(x[:])

	k := sha256Sum(pPadded, gPadded)
	kInt := new(big.Int).SetBytes(k[:])

	v := new(big.Int).Exp(g, xInt, p)
	kv := new(big.Int).Mod(new(big.Int).Mul(kInt, v), p)

	t := new(big.Int).Sub(gB, kv)
	t.Mod(t, p)
	if t.Sign() < 0 {
		t.Add(t, p)
	}

	uxInt := new(big.Int).Mul(uInt, xInt)
	expTotal := new(big.Int).Add(exp, uxInt)
	sA := new(big.Int).Exp(t, expTotal, p)
	kA := sha256Sum(padBE(sA.Bytes(), 256))

	hashP := sha256Sum(pPadded)
	hashG := sha256Sum(gPadded)
	hashSalt1 := sha256Sum(params.Salt1)
	hashSalt2 := sha256Sum(params.Salt2)
	hashXORed := xor32(hashP, hashG)

	m1Sum := sha256Sum(hashXORed[:], hashSalt1[:], hashSalt2[:], gA, bPadded, kA[:])

	copy(a[:], gA)
	m1 = m1Sum
	return a, m1, nil
}

func randBigInt(bytes int) (*big.Int, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("crypto: srp: rand.Read: %w", err)
	}
	return new(big.Int).SetBytes(buf), nil
}
