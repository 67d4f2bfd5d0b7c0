package dcpool

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/ankit-chaubey/layer/internal/crypto"
	"github.com/ankit-chaubey/layer/tl"
)

func TestPoolConnectUnknownDC(t *testing.T) {
	p := NewPool(DefaultHomeDC)
	_, err := p.Connect(context.Background(), 99)
	if !errors.Is(err, ErrUnknownDC) {
		t.Fatalf("Connect() = %v, want ErrUnknownDC", err)
	}
}

func TestPoolSeedAndSnapshotRoundTrip(t *testing.T) {
	p := NewPool(0)

	var raw [256]byte
	if _, err := rand.Read(raw[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	key := crypto.NewAuthKey(raw)

	p.Seed(4, []Record{
		{DCID: 4, Addr: "203.0.113.1:443", AuthKey: &key, FirstSalt: 99, TimeOffset: 3},
	})

	if got := p.HomeDC(); got != 4 {
		t.Fatalf("HomeDC() = %d, want 4", got)
	}

	homeDC, records := p.Snapshot()
	if homeDC != 4 {
		t.Fatalf("Snapshot() homeDC = %d, want 4", homeDC)
	}
	if len(records) != 1 {
		t.Fatalf("Snapshot() returned %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.DCID != 4 || rec.Addr != "203.0.113.1:443" || rec.FirstSalt != 99 || rec.TimeOffset != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.AuthKey == nil || rec.AuthKey.KeyID() != key.KeyID() {
		t.Fatal("record's auth key does not match the seeded key")
	}
}

func TestPoolSetHomeDC(t *testing.T) {
	p := NewPool(DefaultHomeDC)
	p.SetHomeDC(5)
	if got := p.HomeDC(); got != 5 {
		t.Fatalf("HomeDC() = %d, want 5", got)
	}
}

func TestPoolLearnAddrFiltersUnusableOptions(t *testing.T) {
	p := NewPool(DefaultHomeDC)

	p.LearnAddr(7, "198.51.100.1:443", tl.DcOption{Flags: tl.DcOptionFlagIPv6})
	if _, ok := p.addrs[7]; ok {
		t.Fatal("LearnAddr accepted an IPv6 option with allow_ipv6 disabled")
	}

	p.LearnAddr(7, "198.51.100.1:443", tl.DcOption{Flags: tl.DcOptionFlagMediaOnly})
	if _, ok := p.addrs[7]; ok {
		t.Fatal("LearnAddr accepted a media-only option")
	}

	p.LearnAddr(7, "198.51.100.1:443", tl.DcOption{})
	addr, ok := p.addrs[7]
	if !ok || addr != "198.51.100.1:443" {
		t.Fatalf("LearnAddr did not record a usable option: addrs[7] = %q, ok=%v", addr, ok)
	}
}

func TestPoolLearnAddrAllowsIPv6WhenOptedIn(t *testing.T) {
	p := NewPool(DefaultHomeDC, WithAllowIPv6(true))
	p.LearnAddr(8, "[2001:db8::1]:443", tl.DcOption{Flags: tl.DcOptionFlagIPv6})
	if _, ok := p.addrs[8]; !ok {
		t.Fatal("LearnAddr rejected an IPv6 option with allow_ipv6 enabled")
	}
}

func TestPoolAuthorizeHomeDCIsJustConnect(t *testing.T) {
	// homeDC 42 has no bootstrap address, so Authorize's home-DC branch
	// must fail the same way Connect does rather than attempting a
	// cross-DC export against itself.
	p := NewPool(42)
	_, err := p.Authorize(context.Background(), 42)
	if !errors.Is(err, ErrUnknownDC) {
		t.Fatalf("Authorize() on an unknown home dc = %v, want ErrUnknownDC", err)
	}
}

func TestPoolAuthorizeCrossDCFailsFastWhenTargetUnknown(t *testing.T) {
	p := NewPool(DefaultHomeDC)
	_, err := p.Authorize(context.Background(), 99)
	if !errors.Is(err, ErrUnknownDC) {
		t.Fatalf("Authorize() on an unknown target dc = %v, want ErrUnknownDC", err)
	}
}
