package dcpool

import (
	"crypto/rand"
	"path/filepath"
	"testing"

	"github.com/ankit-chaubey/layer/internal/crypto"
)

func TestFileBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.bin")
	backend := NewFileBackend(path)

	var raw [256]byte
	if _, err := rand.Read(raw[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	key := crypto.NewAuthKey(raw)

	records := []Record{
		{DCID: 2, Addr: "149.154.167.51:443", AuthKey: &key, FirstSalt: 123456789, TimeOffset: -2},
		{DCID: 4, Addr: "149.154.167.91:443", AuthKey: nil, FirstSalt: 0, TimeOffset: 0},
	}

	if err := backend.Save(2, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	homeDC, got, err := backend.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if homeDC != 2 {
		t.Fatalf("homeDC = %d, want 2", homeDC)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	if got[0].DCID != 2 || got[0].Addr != "149.154.167.51:443" || got[0].FirstSalt != 123456789 || got[0].TimeOffset != -2 {
		t.Fatalf("record 0 mismatch: %+v", got[0])
	}
	if got[0].AuthKey == nil || got[0].AuthKey.KeyID() != key.KeyID() {
		t.Fatal("record 0's auth key did not round trip")
	}

	if got[1].DCID != 4 || got[1].AuthKey != nil {
		t.Fatalf("record 1 mismatch: %+v", got[1])
	}
}

func TestFileBackendLoadMissingFileIsNotAnError(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "absent.bin"))
	homeDC, records, err := backend.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if homeDC != 0 || records != nil {
		t.Fatalf("Load() = (%d, %v), want zero value", homeDC, records)
	}
}

func TestFileBackendDeleteIsIdempotent(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "absent.bin"))
	if err := backend.Delete(); err != nil {
		t.Fatalf("Delete on a missing file: %v", err)
	}
}

func TestFileBackendDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.bin")
	backend := NewFileBackend(path)

	if err := backend.Save(2, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := backend.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	homeDC, records, err := backend.Load()
	if err != nil {
		t.Fatalf("Load after Delete: %v", err)
	}
	if homeDC != 0 || records != nil {
		t.Fatalf("Load() after Delete = (%d, %v), want zero value", homeDC, records)
	}
}
