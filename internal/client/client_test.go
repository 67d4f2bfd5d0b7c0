package client

import (
	"testing"

	"github.com/ankit-chaubey/layer/internal/config"
	"github.com/ankit-chaubey/layer/internal/rpc"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.ID = 12345
	cfg.API.Hash = "deadbeefdeadbeefdeadbeefdeadbeef"
	cfg.Session.Backend = "memory"
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(config.DefaultConfig()); err == nil {
		t.Fatal("New() with missing api credentials = nil error, want one")
	}
}

func TestNewRejectsInvalidTransportSecret(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Transport.Secret = "not-hex"
	if _, err := New(cfg); err == nil {
		t.Fatal("New() with an invalid transport.secret = nil error, want one")
	}
}

func TestNewBuildsWithoutDialing(t *testing.T) {
	t.Parallel()

	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if c.Peers() == nil {
		t.Fatal("Peers() = nil")
	}
	if c.Updates() == nil {
		t.Fatal("Updates() = nil")
	}
	if got := c.pool.HomeDC(); got != testConfig().DC.ID {
		t.Fatalf("pool home dc = %d, want %d", got, testConfig().DC.ID)
	}
}

func TestNewAppliesRetryPolicyOption(t *testing.T) {
	t.Parallel()

	custom := rpcPolicyStub{}
	c, err := New(testConfig(), WithRetryPolicy(custom))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if c.retry != custom {
		t.Fatal("WithRetryPolicy() did not override the default retry policy")
	}
}

func TestCloseWithNoConnectionsPersistsEmptySession(t *testing.T) {
	t.Parallel()

	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

type rpcPolicyStub struct{}

func (rpcPolicyStub) Decide(attempt int, err error) rpc.Decision { return rpc.Decision{} }
