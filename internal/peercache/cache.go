// Package peercache implements the peer access-hash cache (spec's "Peer
// Cache" data model): a pair of id -> access_hash mappings populated
// opportunistically from every API response that carries user or chat
// objects, and consulted before any outgoing call that references a peer.
//
// It shares its map-plus-mutex shape with dantte-lp-gobfd's session
// registries, scaled down to two maps and no per-entry lifecycle since
// entries here are immutable facts rather than live connections.
package peercache

import (
	"errors"
	"sync"

	"github.com/ankit-chaubey/layer/tl"
)

// ErrUnknownPeer is returned when a caller asks for a peer's access hash
// before it has ever appeared in a response. Spec: "if absent, the call
// fails fast with a diagnosable error rather than transmitting a zero
// hash."
var ErrUnknownPeer = errors.New("peercache: access hash not cached for this peer")

// Cache holds every user and chat access hash seen so far, under one
// mutex (spec §5 "read-heavy, write-on-any-response mapping under its own
// mutex").
type Cache struct {
	mu       sync.RWMutex
	users    map[int64]int64
	channels map[int64]int64
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		users:    make(map[int64]int64),
		channels: make(map[int64]int64),
	}
}

// AbsorbUsers records every hashed user in users, skipping any without a
// known access hash (anonymized or deleted accounts).
func (c *Cache) AbsorbUsers(users []tl.User) {
	if len(users) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range users {
		if u.HasHash {
			c.users[u.ID] = u.AccessHash
		}
	}
}

// AbsorbChats records every hashed channel in chats. Plain chats (not
// megagroups/channels) carry no access hash and are not represented in
// the cache; ordinary chat IDs need none to be addressed.
func (c *Cache) AbsorbChats(chats []tl.Chat) {
	if len(chats) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range chats {
		if ch.Channel && ch.HasHash {
			c.channels[ch.ID] = ch.AccessHash
		}
	}
}

// User returns id's cached access hash.
func (c *Cache) User(id int64) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hash, ok := c.users[id]
	return hash, ok
}

// Channel returns id's cached access hash.
func (c *Cache) Channel(id int64) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hash, ok := c.channels[id]
	return hash, ok
}

// RequireUser returns id's cached access hash or ErrUnknownPeer, for call
// sites that must fail fast rather than send a zero hash.
func (c *Cache) RequireUser(id int64) (int64, error) {
	if hash, ok := c.User(id); ok {
		return hash, nil
	}
	return 0, ErrUnknownPeer
}

// RequireChannel returns id's cached access hash or ErrUnknownPeer.
func (c *Cache) RequireChannel(id int64) (int64, error) {
	if hash, ok := c.Channel(id); ok {
		return hash, nil
	}
	return 0, ErrUnknownPeer
}

// Len reports how many users and channels are currently cached.
func (c *Cache) Len() (users, channels int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users), len(c.channels)
}
