package client

import (
	"testing"

	"github.com/ankit-chaubey/layer/internal/config"
	"github.com/ankit-chaubey/layer/internal/crypto"
	"github.com/ankit-chaubey/layer/internal/dcpool"
)

func TestMemoryBackendRoundTrip(t *testing.T) {
	t.Parallel()

	b := newMemoryBackend()

	var raw [256]byte
	raw[0] = 0x7f
	key := crypto.NewAuthKey(raw)

	if err := b.Save(2, []dcpool.Record{{DCID: 2, Addr: "203.0.113.1:443", AuthKey: &key, FirstSalt: 7}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	homeDC, records, err := b.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if homeDC != 2 {
		t.Fatalf("Load() homeDC = %d, want 2", homeDC)
	}
	if len(records) != 1 || records[0].Addr != "203.0.113.1:443" || records[0].FirstSalt != 7 {
		t.Fatalf("Load() records = %+v", records)
	}

	records[0].Addr = "mutated"
	if _, again, _ := b.Load(); again[0].Addr == "mutated" {
		t.Fatal("Load() returned a slice aliasing internal storage")
	}

	if err := b.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	homeDC, records, err = b.Load()
	if err != nil || homeDC != 0 || len(records) != 0 {
		t.Fatalf("Load() after Delete = (%d, %v, %v), want (0, nil, nil)", homeDC, records, err)
	}
}

func TestNewSessionBackendRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := newSessionBackend(config.SessionConfig{Backend: "carrier-pigeon"}); err == nil {
		t.Fatal("newSessionBackend() with an unknown backend = nil error, want one")
	}
}
