package crypto

import (
	"crypto/rand"
	"math/big"
	"testing"
)

// a 2048-bit safe prime small enough to keep the test fast isn't available
// off the shelf, so this test builds its own toy group: a random 256-bit
// prime is still large enough to exercise every step of SolveSRP (padding,
// modular exponentiation, the XOR/hash chain) without the minutes a real
// 2048-bit Exp would cost in a test loop.
func testPrime(t *testing.T) *big.Int {
	t.Helper()
	p, err := rand.Prime(rand.Reader, 256)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSolveSRPFreshExponentPerCall(t *testing.T) {
	t.Parallel()

	p := testPrime(t)
	g := int32(3)

	password := "correct horse battery staple"
	salt1 := []byte("salt-one")
	salt2 := []byte("salt-two")

	x := passwordHash(password, salt1, salt2)
	xInt := new(big.Int).SetBytes(x[:])
	v := new(big.Int).Exp(big.NewInt(int64(g)), xInt, p)

	b, err := randBigInt(32)
	if err != nil {
		t.Fatal(err)
	}
	one := big.NewInt(1)
	if b.Cmp(one) <= 0 {
		b.Add(b, big.NewInt(2))
	}
	gB := new(big.Int).Exp(big.NewInt(int64(g)), b, p)

	params := SRPParams{
		G:     g,
		P:     p.Bytes(),
		Salt1: salt1,
		Salt2: salt2,
		B:     gB.Bytes(),
	}

	a1, m1a, err := SolveSRP(password, params)
	if err != nil {
		t.Fatalf("SolveSRP() error = %v", err)
	}
	a2, m1b, err := SolveSRP(password, params)
	if err != nil {
		t.Fatalf("SolveSRP() error = %v", err)
	}

	if a1 == a2 {
		t.Fatal("SolveSRP() produced the same A for two independent calls, exponent isn't random")
	}
	if m1a == m1b {
		t.Fatal("SolveSRP() produced identical M1 for two independent random exponents")
	}
	for _, a := range [][256]byte{a1, a2} {
		if a == ([256]byte{}) {
			t.Fatal("SolveSRP() returned an all-zero A")
		}
	}
	_ = v // v (the password verifier) is what a real server would have stored; not re-derived here
}

func TestSolveSRPRejectsOutOfRangeB(t *testing.T) {
	t.Parallel()

	p := testPrime(t)
	params := SRPParams{
		G:     3,
		P:     p.Bytes(),
		Salt1: []byte("s1"),
		Salt2: []byte("s2"),
		B:     []byte{1}, // == 1, must be rejected
	}

	if _, _, err := SolveSRP("pw", params); err == nil {
		t.Fatal("SolveSRP() with B=1 should fail its range check")
	}
}

func TestPasswordHashIsSaltSensitive(t *testing.T) {
	t.Parallel()

	h1 := passwordHash("hunter2", []byte("a"), []byte("b"))
	h2 := passwordHash("hunter2", []byte("a"), []byte("c"))
	if h1 == h2 {
		t.Fatal("passwordHash() identical for different salt2")
	}
}

func TestPadBE(t *testing.T) {
	t.Parallel()

	got := padBE([]byte{0x01, 0x02}, 4)
	want := []byte{0x00, 0x00, 0x01, 0x02}
	if len(got) != len(want) {
		t.Fatalf("len(padBE) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("padBE() = %x, want %x", got, want)
		}
	}
}
