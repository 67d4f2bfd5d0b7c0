package client

import (
	"context"
	"time"

	"github.com/ankit-chaubey/layer/tl"
)

// chatActionInterval is how often a live "typing" indicator is refreshed
// (spec §5: "Scoped 'chat action' indicators refresh every 4 seconds").
const chatActionInterval = 4 * time.Second

// ChatActionGuard keeps a typing indicator alive on a peer for as long as it
// runs. Stopping it — whether by cancelling the context it was started with
// or by calling Stop — always sends one final cancel action before
// returning, the same way the update engine's pingLoop ticker is grounded
// on a single goroutine owning its own shutdown path.
type ChatActionGuard struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartChatAction begins sending messages.setTyping against peer on dcID
// every 4 seconds until the returned guard is stopped (spec §5).
func (c *Client) StartChatAction(ctx context.Context, dcID int32, peer tl.InputPeer) *ChatActionGuard {
	guardCtx, cancel := context.WithCancel(ctx)
	g := &ChatActionGuard{cancel: cancel, done: make(chan struct{})}
	go g.run(guardCtx, c, dcID, peer)
	return g
}

func (g *ChatActionGuard) run(ctx context.Context, c *Client, dcID int32, peer tl.InputPeer) {
	defer close(g.done)
	ticker := time.NewTicker(chatActionInterval)
	defer ticker.Stop()

	send := func(action tl.TypingAction) {
		callCtx, cancel := context.WithTimeout(context.Background(), chatActionInterval)
		defer cancel()
		if _, err := c.Call(callCtx, dcID, "messages.setTyping", tl.SetTyping{Peer: peer, Action: action}); err != nil {
			c.logger.Warn("chat action send failed", "error", err)
		}
	}

	send(tl.TypingActionTyping)
	for {
		select {
		case <-ctx.Done():
			send(tl.TypingActionCancel)
			return
		case <-ticker.C:
			send(tl.TypingActionTyping)
		}
	}
}

// Stop cancels the guard and blocks until its final cancel action has been
// sent.
func (g *ChatActionGuard) Stop() {
	g.cancel()
	<-g.done
}
