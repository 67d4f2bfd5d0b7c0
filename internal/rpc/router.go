// Package rpc implements the envelope unwrapper and RPC multiplexer (spec
// §4.8): recursive decoding of containers, compressed payloads, and
// service envelopes, plus routing of rpc_result replies back to the
// in-flight caller that issued the matching request.
package rpc

import (
	"log/slog"
	"sync"

	"github.com/ankit-chaubey/layer/internal/metrics"
	"github.com/ankit-chaubey/layer/internal/session"
)

// Result is what a pending call's delivery slot eventually receives: the
// still-boxed response payload, or a terminal error.
type Result struct {
	Payload []byte
	Err     error
}

// UpdateSink receives anything the envelope unwrapper classifies as an
// update rather than an RPC reply (spec §4.8's "updates, updateShort*,
// updatesCombined, updatesTooLong" row). internal/updates implements it.
type UpdateSink interface {
	HandleRawUpdate(payload []byte)
}

// Router owns the table of in-flight callers, keyed by the message id
// they sent their request under, and dispatches decoded envelope contents
// either to the waiting caller or to the UpdateSink (spec §4.8 "RPC
// routing", §5 "RPC responses are delivered to the unique caller
// identified by req_msg_id").
//
// One Router is shared by every caller issuing RPCs over a given
// session.State; it does not itself own the connection, only the
// reply-delivery bookkeeping. Each dcpool.Entry creates its own Router, so
// a reconnect starts with a fresh one; the old one's pending callers
// receive ErrDropped when its connection closes.
type Router struct {
	mu      sync.Mutex
	pending map[int64]chan Result

	sess    *session.State
	sink    UpdateSink
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewRouter creates a Router bound to sess (for opportunistic salt
// updates from bad_server_salt) and sink (for decoded updates). collector
// and logger may be nil.
func NewRouter(sess *session.State, sink UpdateSink, collector *metrics.Collector, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		pending: make(map[int64]chan Result),
		sess:    sess,
		sink:    sink,
		metrics: collector,
		logger:  logger.With(slog.String("component", "rpc.router")),
	}
}

// Register allocates a single-shot delivery slot for msgID, to be called
// before the corresponding request is sent over the wire (spec §4.8 "Each
// pending call registers a single-shot delivery slot keyed by its
// outgoing message ID before transmission"). method names the RPC for
// metrics labeling only.
func (r *Router) Register(msgID int64, method string) <-chan Result {
	ch := make(chan Result, 1)
	r.mu.Lock()
	r.pending[msgID] = ch
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.BeginRPC(method)
	}
	return ch
}

// Forget removes msgID's delivery slot without delivering anything,
// e.g. after a response already arrived through another path.
func (r *Router) Forget(msgID int64) {
	r.mu.Lock()
	delete(r.pending, msgID)
	r.mu.Unlock()
}

// deliver hands result to msgID's slot if one is registered, removing it
// so each slot fires at most once. It reports whether a slot was found.
func (r *Router) deliver(msgID int64, result Result) bool {
	r.mu.Lock()
	ch, ok := r.pending[msgID]
	if ok {
		delete(r.pending, msgID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	if r.metrics != nil {
		r.metrics.EndRPC()
	}
	ch <- result
	return true
}

// DropAll delivers ErrDropped to every still-pending call, for a clean
// shutdown or a connection teardown that will never produce replies for
// in-flight requests (spec §7 "Dropped").
func (r *Router) DropAll() {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[int64]chan Result)
	r.mu.Unlock()

	for _, ch := range pending {
		ch <- Result{Err: ErrDropped}
	}
}

// Pending reports how many calls are currently awaiting a reply.
func (r *Router) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
