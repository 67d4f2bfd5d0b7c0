package dcpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ankit-chaubey/layer/internal/metrics"
	"github.com/ankit-chaubey/layer/internal/mtproto/transport"
	"github.com/ankit-chaubey/layer/internal/rpc"
	"github.com/ankit-chaubey/layer/internal/session"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
)

// Entry is one datacenter's live encrypted connection: the transport, its
// session state, the RPC router dispatching replies and updates, and the
// goroutine feeding incoming frames into that router (spec §4.9 "at most
// one encrypted session per DC ID", §5 "one task per connection reads
// frames").
type Entry struct {
	dcID int32
	addr string

	writeMu sync.Mutex
	conn    transport.Transport
	sess    *session.State
	router  *rpc.Router

	authMu     sync.Mutex
	authorized bool

	done   chan struct{}
	logger *slog.Logger
}

func newEntry(dcID int32, addr string, conn transport.Transport, sess *session.State, sink rpc.UpdateSink, collector *metrics.Collector, logger *slog.Logger) *Entry {
	e := &Entry{
		dcID:   dcID,
		addr:   addr,
		conn:   conn,
		sess:   sess,
		router: rpc.NewRouter(sess, sink, collector, logger),
		done:   make(chan struct{}),
		logger: logger.With(slog.Int("dc_id", int(dcID))),
	}
	go e.readLoop()
	return e
}

func (e *Entry) readLoop() {
	defer close(e.done)
	for {
		frame, err := e.conn.Recv()
		if err != nil {
			e.logger.Warn("dcpool: connection closed", "error", err)
			e.router.DropAll()
			return
		}
		unpacked, err := e.sess.Unpack(frame)
		if err != nil {
			e.logger.Warn("dcpool: frame decode failed", "error", err)
			continue
		}
		if err := e.router.Unwrap(unpacked.MsgID, unpacked.Body); err != nil {
			e.logger.Warn("dcpool: envelope unwrap failed", "error", err)
		}
	}
}

// Call sends one RPC body and waits for its reply or ctx's cancellation
// (spec §4.8 "RPC routing"). method names the call for metrics labeling.
func (e *Entry) Call(ctx context.Context, method string, body encodable) (rpc.Result, error) {
	w := tlcodec.NewWriter(256)
	body.Encode(w)

	frame, msgID, err := e.sess.Pack(w.Bytes(), true)
	if err != nil {
		return rpc.Result{}, fmt.Errorf("dcpool: pack %s: %w", method, err)
	}

	ch := e.router.Register(msgID, method)

	e.writeMu.Lock()
	err = e.conn.Send(frame)
	e.writeMu.Unlock()
	if err != nil {
		e.router.Forget(msgID)
		return rpc.Result{}, fmt.Errorf("dcpool: send %s: %w", method, err)
	}

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		e.router.Forget(msgID)
		return rpc.Result{}, ctx.Err()
	}
}

// SendNoWait packs and sends body without registering a reply slot, for
// fire-and-forget traffic such as keepalive pings whose pong is handled
// as housekeeping by the router rather than delivered to a caller.
func (e *Entry) SendNoWait(body encodable) error {
	w := tlcodec.NewWriter(64)
	body.Encode(w)
	frame, _, err := e.sess.Pack(w.Bytes(), false)
	if err != nil {
		return fmt.Errorf("dcpool: pack: %w", err)
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.conn.Send(frame)
}

// DCID reports the datacenter this entry connects to.
func (e *Entry) DCID() int32 { return e.dcID }

// Addr reports the address this entry is connected to.
func (e *Entry) Addr() string { return e.addr }

// Done returns a channel closed once this entry's read loop has exited,
// e.g. on a fatal I/O error, letting a supervisor (internal/updates)
// notice a disconnection without itself calling Close.
func (e *Entry) Done() <-chan struct{} { return e.done }

// Session exposes the connection's session state, e.g. for persistence.
func (e *Entry) Session() *session.State { return e.sess }

// Authorized reports whether a cross-DC auth.importAuthorization has
// already succeeded on this entry (spec §4.9's "a second method call ...
// reuses the existing pool entry without re-exporting").
func (e *Entry) Authorized() bool {
	e.authMu.Lock()
	defer e.authMu.Unlock()
	return e.authorized
}

func (e *Entry) markAuthorized() {
	e.authMu.Lock()
	e.authorized = true
	e.authMu.Unlock()
}

// Close tears down the connection and waits for its read loop to exit.
func (e *Entry) Close() error {
	err := e.conn.Close()
	<-e.done
	return err
}
