package client

import (
	"sync"

	"github.com/ankit-chaubey/layer/internal/dcpool"
)

// memoryBackend is the "memory" session.backend option (spec's
// SessionBackend interface: "any concrete store ... must be round-trip
// equivalent"): it satisfies dcpool.SessionBackend without touching disk,
// for tests and for callers that persist sessions themselves.
type memoryBackend struct {
	mu      sync.Mutex
	homeDC  int32
	records []dcpool.Record
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{}
}

func (b *memoryBackend) Name() string { return "memory" }

func (b *memoryBackend) Save(homeDC int32, records []dcpool.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.homeDC = homeDC
	b.records = append([]dcpool.Record(nil), records...)
	return nil
}

func (b *memoryBackend) Load() (int32, []dcpool.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.homeDC, append([]dcpool.Record(nil), b.records...), nil
}

func (b *memoryBackend) Delete() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.homeDC = 0
	b.records = nil
	return nil
}
