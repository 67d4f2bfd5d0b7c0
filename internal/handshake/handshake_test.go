package handshake

import (
	"math/big"
	"testing"

	"github.com/ankit-chaubey/layer/internal/crypto"
	"github.com/ankit-chaubey/layer/tl"
)

func authKeyFor(keyBytes [256]byte) crypto.AuthKey {
	return crypto.NewAuthKey(keyBytes)
}

func newStep3State(gab int64) Step3State {
	var nonce, serverNonce [16]byte
	var newNonce [32]byte
	for i := range nonce {
		nonce[i] = byte(i + 1)
	}
	for i := range serverNonce {
		serverNonce[i] = byte(i + 100)
	}
	for i := range newNonce {
		newNonce[i] = byte(i + 200)
	}
	return Step3State{
		nonce:       nonce,
		serverNonce: serverNonce,
		newNonce:    newNonce,
		gab:         big.NewInt(gab),
		timeOffset:  0,
	}
}

func TestFinishNonceMismatch(t *testing.T) {
	t.Parallel()

	state := newStep3State(12345)
	resp := tl.SetClientDHParamsAnswer{
		Ok: &tl.DHGenOk{Nonce: [16]byte{9, 9, 9}, ServerNonce: state.serverNonce},
	}
	if _, err := Finish(state, resp); err != ErrNonceMismatch {
		t.Fatalf("Finish() error = %v, want ErrNonceMismatch", err)
	}
}

func TestFinishServerNonceMismatch(t *testing.T) {
	t.Parallel()

	state := newStep3State(12345)
	resp := tl.SetClientDHParamsAnswer{
		Ok: &tl.DHGenOk{Nonce: state.nonce, ServerNonce: [16]byte{9, 9, 9}},
	}
	if _, err := Finish(state, resp); err != ErrServerNonceMismatch {
		t.Fatalf("Finish() error = %v, want ErrServerNonceMismatch", err)
	}
}

func TestFinishDeterministicAuthKey(t *testing.T) {
	t.Parallel()

	state := newStep3State(987654321)

	var keyBytes [256]byte
	gabBytes := state.gab.Bytes()
	copy(keyBytes[256-len(gabBytes):], gabBytes)
	wantKeyID := mustAuthKeyID(keyBytes)

	expectedHash := mustNewNonceHash(keyBytes, state.newNonce, 1)
	resp := tl.SetClientDHParamsAnswer{
		Ok: &tl.DHGenOk{Nonce: state.nonce, ServerNonce: state.serverNonce, NewNonceHash1: expectedHash},
	}

	got, err := Finish(state, resp)
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if got.AuthKey.KeyID() != wantKeyID {
		t.Fatalf("AuthKey.KeyID() = %x, want %x", got.AuthKey.KeyID(), wantKeyID)
	}

	// Running Finish again with identical inputs must produce the same key.
	got2, err := Finish(state, resp)
	if err != nil {
		t.Fatalf("Finish() (2nd run) error = %v", err)
	}
	if got.AuthKey.KeyID() != got2.AuthKey.KeyID() {
		t.Fatal("Finish() not deterministic across repeated calls with identical input")
	}
}

func TestFinishNewNonceHashMismatch(t *testing.T) {
	t.Parallel()

	state := newStep3State(42)
	resp := tl.SetClientDHParamsAnswer{
		Ok: &tl.DHGenOk{Nonce: state.nonce, ServerNonce: state.serverNonce, NewNonceHash1: [16]byte{1, 2, 3}},
	}
	if _, err := Finish(state, resp); err != ErrNewNonceHashMismatch {
		t.Fatalf("Finish() error = %v, want ErrNewNonceHashMismatch", err)
	}
}

func TestFinishDHGenRetry(t *testing.T) {
	t.Parallel()

	state := newStep3State(42)

	var keyBytes [256]byte
	gabBytes := state.gab.Bytes()
	copy(keyBytes[256-len(gabBytes):], gabBytes)
	hash := mustNewNonceHash(keyBytes, state.newNonce, 2)

	resp := tl.SetClientDHParamsAnswer{
		Retry: &tl.DHGenRetry{Nonce: state.nonce, ServerNonce: state.serverNonce, NewNonceHash2: hash},
	}
	if _, err := Finish(state, resp); err != ErrDHGenRetry {
		t.Fatalf("Finish() error = %v, want ErrDHGenRetry", err)
	}
}

func TestStep2RejectsWrongPQSize(t *testing.T) {
	t.Parallel()

	state := Step1State{}
	resp := tl.ResPQ{PQ: []byte{1, 2, 3}}
	if _, _, err := Step2(state, resp); err != ErrInvalidPQSize {
		t.Fatalf("Step2() error = %v, want ErrInvalidPQSize", err)
	}
}

func TestStep2RejectsNonceMismatch(t *testing.T) {
	t.Parallel()

	state := Step1State{nonce: [16]byte{1}}
	resp := tl.ResPQ{Nonce: [16]byte{2}, PQ: make([]byte, 8)}
	if _, _, err := Step2(state, resp); err != ErrNonceMismatch {
		t.Fatalf("Step2() error = %v, want ErrNonceMismatch", err)
	}
}

func TestKeyForFingerprintKnownValues(t *testing.T) {
	t.Parallel()

	if _, ok := keyForFingerprint(-3414540481677951611); !ok {
		t.Fatal("expected production fingerprint to resolve")
	}
	if _, ok := keyForFingerprint(-5595554452916591101); !ok {
		t.Fatal("expected test-DC fingerprint to resolve")
	}
	if _, ok := keyForFingerprint(123); ok {
		t.Fatal("unexpected match for unknown fingerprint")
	}
}

// --- test helpers mirroring the package's own derivation logic ---

func mustAuthKeyID(keyBytes [256]byte) [8]byte {
	return authKeyFor(keyBytes).KeyID()
}

func mustNewNonceHash(keyBytes [256]byte, newNonce [32]byte, num byte) [16]byte {
	return authKeyFor(keyBytes).CalcNewNonceHash(newNonce, num)
}
