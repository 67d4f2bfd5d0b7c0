package session

import (
	"crypto/rand"
	"testing"

	"github.com/ankit-chaubey/layer/internal/crypto"
)

func testAuthKey(t *testing.T) crypto.AuthKey {
	t.Helper()
	var raw [256]byte
	if _, err := rand.Read(raw[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return crypto.NewAuthKey(raw)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	authKey := testAuthKey(t)
	st, err := New(authKey, 12345, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	body := []byte("a representative RPC call body, not 4-aligned")
	frame, msgID, err := st.Pack(body, true)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	got, err := st.Unpack(frame)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got.MsgID != msgID {
		t.Fatalf("msg id mismatch: got %d, want %d", got.MsgID, msgID)
	}
	if string(got.Body) != string(body) {
		t.Fatalf("body mismatch: got %q, want %q", got.Body, body)
	}
}

func TestUnpackTamperedCiphertextFails(t *testing.T) {
	authKey := testAuthKey(t)
	st, err := New(authKey, 1, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame, _, err := st.Pack([]byte("hello"), true)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	frame[len(frame)-1] ^= 0xff

	if _, err := st.Unpack(frame); err == nil {
		t.Fatal("want error for tampered ciphertext, got nil")
	}
}

func TestUnpackSessionMismatch(t *testing.T) {
	authKey := testAuthKey(t)
	sender, err := New(authKey, 1, 0)
	if err != nil {
		t.Fatalf("New (sender): %v", err)
	}
	receiver, err := New(authKey, 1, 0)
	if err != nil {
		t.Fatalf("New (receiver): %v", err)
	}

	frame, _, err := sender.Pack([]byte("hello"), true)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	if _, err := receiver.Unpack(frame); err != ErrSessionMismatch {
		t.Fatalf("want ErrSessionMismatch, got %v", err)
	}
}

func TestNextMsgIDMonotonic(t *testing.T) {
	st, err := New(testAuthKey(t), 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	prev := st.NextMsgID()
	for range 1000 {
		next := st.NextMsgID()
		if next <= prev {
			t.Fatalf("msg id not strictly increasing: %d <= %d", next, prev)
		}
		if next&3 != 0 {
			t.Fatalf("msg id low 2 bits not zero: %#x", next)
		}
		prev = next
	}
}

func TestNextSeqNoParity(t *testing.T) {
	st, err := New(testAuthKey(t), 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if seq := st.NextSeqNo(false); seq%2 != 0 {
		t.Fatalf("content-unrelated seq_no must be even, got %d", seq)
	}
	if seq := st.NextSeqNo(true); seq%2 != 1 {
		t.Fatalf("content-related seq_no must be odd, got %d", seq)
	}
	first := st.NextSeqNo(true)
	second := st.NextSeqNo(true)
	if second <= first {
		t.Fatalf("content-related seq_no must advance: %d then %d", first, second)
	}
}

func TestPlaintextRoundTrip(t *testing.T) {
	body := []byte("req_pq_multi body")
	frame := PackPlaintext(body)

	msgID, got, err := UnpackPlaintext(frame)
	if err != nil {
		t.Fatalf("UnpackPlaintext: %v", err)
	}
	if msgID == 0 {
		t.Fatal("want non-zero message id")
	}
	if string(got) != string(body) {
		t.Fatalf("body mismatch: got %q, want %q", got, body)
	}
}
