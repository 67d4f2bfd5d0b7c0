package updates

import (
	"testing"
	"time"

	"github.com/ankit-chaubey/layer/internal/dcpool"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
)

func newTestEngine() *Engine {
	pool := dcpool.NewPool(99) // dc 99 is never dialed by these tests
	return New(pool, ClientInfo{}, nil, nil)
}

func encodeUpdateShortRaw(innerID uint32, date int32) []byte {
	w := tlcodec.NewWriter(16)
	w.PutUint32(tl.IDUpdateShort)
	w.PutUint32(innerID) // decodeOneUpdate's default branch reads nothing further
	w.PutInt32(date)
	return w.Bytes()
}

func TestHandleRawUpdateDeliversShortUpdate(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.HandleRawUpdate(encodeUpdateShortRaw(0xdeadbeef, 1700000000))

	select {
	case ev := <-e.Events():
		if ev.Kind != tl.UpdateKindRaw || ev.Update.RawConstructorID != 0xdeadbeef {
			t.Fatalf("event = %+v, want Raw/0xdeadbeef", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func encodeUser(id, accessHash int64) []byte {
	w := tlcodec.NewWriter(32)
	w.PutUint32(0x3ff6ecb0) // idUser
	w.PutInt32(1 << 0)      // flags: has access_hash only
	w.PutInt64(id)
	w.PutInt64(accessHash)
	return w.Bytes()
}

func encodeUpdatesCombined(innerID uint32, users [][]byte, date, seqStart, seq int32) []byte {
	w := tlcodec.NewWriter(64)
	w.PutUint32(tl.IDUpdatesCombined)
	w.VectorHeader(1)
	w.PutUint32(innerID)
	w.VectorHeader(len(users))
	for _, u := range users {
		w.PutRaw(u)
	}
	w.VectorHeader(0) // chats
	w.PutInt32(date)
	w.PutInt32(seqStart)
	w.PutInt32(seq)
	return w.Bytes()
}

func TestHandleRawUpdateAbsorbsPeersAndAdvancesBatchState(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	frame := encodeUpdatesCombined(0xdeadbeef, [][]byte{encodeUser(111, 222)}, 1700000001, 1, 2)
	e.HandleRawUpdate(frame)

	select {
	case ev := <-e.Events():
		if ev.Update.RawConstructorID != 0xdeadbeef {
			t.Fatalf("event = %+v, want RawConstructorID 0xdeadbeef", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}

	if hash, ok := e.Peers().User(111); !ok || hash != 222 {
		t.Fatalf("Peers().User(111) = (%d, %v), want (222, true)", hash, ok)
	}
	if _, _, _, seq := e.pts.snapshot(); seq != 2 {
		t.Fatalf("seq = %d, want 2", seq)
	}
}

func TestHandleRawUpdateDiscardsUndecodableFrame(t *testing.T) {
	e := newTestEngine()
	defer e.Close()

	e.HandleRawUpdate([]byte{0x01}) // too short to even hold a constructor id

	select {
	case ev := <-e.Events():
		t.Fatalf("unexpected event delivered: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
