package rpc

import (
	"errors"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRegisterDeliverRoundTrip(t *testing.T) {
	r := NewRouter(testSession(t), nil, nil, nil)
	ch := r.Register(42, "auth.sendCode")

	if got := r.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}

	if !r.deliver(42, Result{Payload: []byte("ok")}) {
		t.Fatal("deliver() = false, want true")
	}

	select {
	case res := <-ch:
		if string(res.Payload) != "ok" {
			t.Fatalf("Payload = %q, want %q", res.Payload, "ok")
		}
	default:
		t.Fatal("no result delivered")
	}

	if got := r.Pending(); got != 0 {
		t.Fatalf("Pending() = %d after delivery, want 0", got)
	}
}

func TestDeliverUnknownMsgIDIsNoop(t *testing.T) {
	r := NewRouter(testSession(t), nil, nil, nil)
	if r.deliver(999, Result{}) {
		t.Fatal("deliver() = true for an unregistered msg id")
	}
}

func TestForgetRemovesSlotWithoutDelivering(t *testing.T) {
	r := NewRouter(testSession(t), nil, nil, nil)
	r.Register(1, "method")
	r.Forget(1)
	if got := r.Pending(); got != 0 {
		t.Fatalf("Pending() = %d after Forget, want 0", got)
	}
}

func TestDropAllDeliversErrDroppedToEveryPendingCall(t *testing.T) {
	r := NewRouter(testSession(t), nil, nil, nil)
	ch1 := r.Register(1, "a")
	ch2 := r.Register(2, "b")

	r.DropAll()

	for _, ch := range []<-chan Result{ch1, ch2} {
		select {
		case res := <-ch:
			if !errors.Is(res.Err, ErrDropped) {
				t.Fatalf("Err = %v, want ErrDropped", res.Err)
			}
		default:
			t.Fatal("no result delivered by DropAll")
		}
	}

	if got := r.Pending(); got != 0 {
		t.Fatalf("Pending() = %d after DropAll, want 0", got)
	}
}
