package peercache

import (
	"errors"
	"testing"

	"github.com/ankit-chaubey/layer/tl"
)

func TestAbsorbUsersSkipsHashless(t *testing.T) {
	c := New()
	c.AbsorbUsers([]tl.User{
		{ID: 1, AccessHash: 100, HasHash: true},
		{ID: 2, HasHash: false},
	})

	if hash, ok := c.User(1); !ok || hash != 100 {
		t.Fatalf("User(1) = (%d, %v), want (100, true)", hash, ok)
	}
	if _, ok := c.User(2); ok {
		t.Fatal("User(2) cached despite HasHash=false")
	}
}

func TestAbsorbChatsOnlyKeepsHashedChannels(t *testing.T) {
	c := New()
	c.AbsorbChats([]tl.Chat{
		{ID: 10, Channel: true, HasHash: true, AccessHash: 999},
		{ID: 11, Channel: false}, // plain chat, no access hash concept
		{ID: 12, Channel: true, HasHash: false},
	})

	if hash, ok := c.Channel(10); !ok || hash != 999 {
		t.Fatalf("Channel(10) = (%d, %v), want (999, true)", hash, ok)
	}
	if _, ok := c.Channel(11); ok {
		t.Fatal("Channel(11) cached despite being a plain chat")
	}
	if _, ok := c.Channel(12); ok {
		t.Fatal("Channel(12) cached despite HasHash=false")
	}
}

func TestRequireUserFailsFastWhenUncached(t *testing.T) {
	c := New()
	if _, err := c.RequireUser(42); !errors.Is(err, ErrUnknownPeer) {
		t.Fatalf("RequireUser() = %v, want ErrUnknownPeer", err)
	}
}

func TestRequireChannelSucceedsAfterAbsorb(t *testing.T) {
	c := New()
	c.AbsorbChats([]tl.Chat{{ID: 5, Channel: true, HasHash: true, AccessHash: 77}})
	hash, err := c.RequireChannel(5)
	if err != nil || hash != 77 {
		t.Fatalf("RequireChannel(5) = (%d, %v), want (77, nil)", hash, err)
	}
}

func TestLenReportsBothMaps(t *testing.T) {
	c := New()
	c.AbsorbUsers([]tl.User{{ID: 1, HasHash: true, AccessHash: 1}})
	c.AbsorbChats([]tl.Chat{{ID: 2, Channel: true, HasHash: true, AccessHash: 2}})
	users, channels := c.Len()
	if users != 1 || channels != 1 {
		t.Fatalf("Len() = (%d, %d), want (1, 1)", users, channels)
	}
}
