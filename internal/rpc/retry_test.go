package rpc

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultRetryPolicyFloodWaitWithinThreshold(t *testing.T) {
	p := NewDefaultRetryPolicy()
	err := ParseError(420, "FLOOD_WAIT_30")
	d := p.Decide(1, err)
	if !d.Retry || d.Wait != 30*time.Second {
		t.Fatalf("Decide() = %+v, want retry after 30s", d)
	}
}

func TestDefaultRetryPolicyFloodWaitAboveThreshold(t *testing.T) {
	p := NewDefaultRetryPolicy()
	err := ParseError(420, "FLOOD_WAIT_3600")
	d := p.Decide(1, err)
	if d.Retry {
		t.Fatalf("Decide() = %+v, want no retry above threshold", d)
	}
}

func TestDefaultRetryPolicyFloodWaitGivesUpAfterFiveAttempts(t *testing.T) {
	p := NewDefaultRetryPolicy()
	err := ParseError(420, "FLOOD_WAIT_1")
	if d := p.Decide(5, err); !d.Retry {
		t.Fatalf("Decide(5) = %+v, want retry at the boundary", d)
	}
	if d := p.Decide(6, err); d.Retry {
		t.Fatalf("Decide(6) = %+v, want no retry past the cap", d)
	}
}

func TestDefaultRetryPolicyNonRPCErrorRetriesOnce(t *testing.T) {
	p := NewDefaultRetryPolicy()
	ioErr := errors.New("connection reset")

	d := p.Decide(1, ioErr)
	if !d.Retry || d.Wait != p.IOBackoff {
		t.Fatalf("Decide(1) = %+v, want one retry after IOBackoff", d)
	}

	d = p.Decide(2, ioErr)
	if d.Retry {
		t.Fatalf("Decide(2) = %+v, want no second retry", d)
	}
}

func TestDefaultRetryPolicyOtherRPCErrorNeverRetries(t *testing.T) {
	p := NewDefaultRetryPolicy()
	err := ParseError(400, "PHONE_CODE_INVALID")
	if d := p.Decide(1, err); d.Retry {
		t.Fatalf("Decide() = %+v, want no retry for a non-flood rpc error", d)
	}
}

func TestSleepRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep() = %v, want context.Canceled", err)
	}
}

func TestSleepZeroReturnsImmediately(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Fatalf("Sleep(0) = %v, want nil", err)
	}
}
