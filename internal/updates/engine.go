// Package updates implements the update engine (spec §4.10): it decodes
// the Updates boxed family the server pushes over an authorized session,
// classifies each entry into a compact high-level surface, detects pts
// gaps and recovers from them via updates.getDifference / updates.getState,
// and supervises the home-DC connection's reconnect cadence.
//
// It plugs into internal/dcpool as an rpc.UpdateSink: the pool's entries
// hand every recognized update frame to HandleRawUpdate, and Engine's Run
// goroutine pair (ping ticker, reconnect supervisor) is grounded on
// golang.org/x/sync/errgroup the same way dantte-lp-gobfd supervises its
// BFD session workers.
package updates

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ankit-chaubey/layer/internal/dcpool"
	"github.com/ankit-chaubey/layer/internal/metrics"
	"github.com/ankit-chaubey/layer/internal/peercache"
	"github.com/ankit-chaubey/layer/internal/rpc"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
	"golang.org/x/sync/errgroup"
)

// idleTimeout is the receive-loop inactivity window after which the
// engine sends a keepalive ping (spec §5 "The update loop's read has a
// 30-second inactivity timeout").
const idleTimeout = 30 * time.Second

// reconnectBackoff is the pause before redialing after a fatal
// disconnection (spec §4.10 "back off one second and reconnect").
const reconnectBackoff = time.Second

// ClientInfo is the client identification tagged onto the connection via
// initConnection on every fresh connect and reconnect (spec §4.9).
type ClientInfo struct {
	APIID          int32
	DeviceModel    string
	SystemVersion  string
	AppVersion     string
	SystemLangCode string
	LangPack       string
	LangCode       string
}

// Engine owns the pts/qts/date/seq checkpoint, the peer cache, and the
// outgoing event queue, and supervises the home DC connection.
type Engine struct {
	pool  *dcpool.Pool
	peers *peercache.Cache
	pts   *ptsState
	queue *Queue
	info  ClientInfo

	metrics *metrics.Collector
	logger  *slog.Logger

	lastActivity atomic.Int64
	resyncing    atomic.Bool

	ctxMu sync.Mutex
	ctx   context.Context
}

// New creates an Engine bound to pool. Call pool's WithUpdateSink(engine)
// at construction so live connections route update frames here.
func New(pool *dcpool.Pool, info ClientInfo, collector *metrics.Collector, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		pool:    pool,
		peers:   peercache.New(),
		pts:     &ptsState{},
		queue:   NewQueue(),
		info:    info,
		metrics: collector,
		logger:  logger.With(slog.String("component", "updates.engine")),
	}
	e.lastActivity.Store(time.Now().UnixNano())
	return e
}

// Peers exposes the peer access-hash cache populated from every decoded
// update and get_difference response.
func (e *Engine) Peers() *peercache.Cache { return e.peers }

// Events returns the channel consumers range over to receive classified
// updates in order.
func (e *Engine) Events() <-chan Event { return e.queue.Events() }

// Close stops the delivery queue's pump goroutine.
func (e *Engine) Close() { e.queue.Close() }

// Run supervises the home-DC connection until ctx is cancelled: a ping
// ticker guards against silent idle periods, and a reconnect loop
// rebuilds the connection and catches up on missed updates after any
// disconnection (spec §4.10 "Receive loop").
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	e.setCtx(gctx)
	g.Go(func() error { return e.pingLoop(gctx) })
	g.Go(func() error { return e.superviseLoop(gctx) })
	return g.Wait()
}

func (e *Engine) setCtx(ctx context.Context) {
	e.ctxMu.Lock()
	e.ctx = ctx
	e.ctxMu.Unlock()
}

func (e *Engine) currentCtx() context.Context {
	e.ctxMu.Lock()
	defer e.ctxMu.Unlock()
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// superviseLoop keeps the home DC connected, running initConnection and a
// resync after every (re)connect (spec §4.10).
func (e *Engine) superviseLoop(ctx context.Context) error {
	for {
		entry, err := e.ensureHomeConnected(ctx)
		if err != nil {
			e.logger.Warn("home dc connect failed", "error", err)
			if !sleepCtx(ctx, reconnectBackoff) {
				return ctx.Err()
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-entry.Done():
			if e.metrics != nil {
				e.metrics.RecordReconnect()
			}
			e.pool.Invalidate(entry.DCID())
			if !sleepCtx(ctx, reconnectBackoff) {
				return ctx.Err()
			}
		}
	}
}

// ensureHomeConnected returns a connected, initialized, caught-up home DC
// entry, retrying once with a fresh handshake if the cached auth key the
// pool resumed with turns out to be rejected by the server.
func (e *Engine) ensureHomeConnected(ctx context.Context) (*dcpool.Entry, error) {
	home := e.pool.HomeDC()
	if entry, ok := e.pool.Get(home); ok {
		return entry, nil
	}

	entry, err := e.pool.Connect(ctx, home)
	if err != nil {
		return nil, err
	}

	if err := e.initializeAndResync(ctx, entry); err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) && rpcErr.Matches("AUTH_KEY*") {
			e.logger.Warn("cached auth key rejected, forcing a fresh handshake", "dc_id", home)
			e.pool.Forget(home)
			entry, err = e.pool.Connect(ctx, home)
			if err != nil {
				return nil, err
			}
			if err := e.initializeAndResync(ctx, entry); err != nil {
				return nil, err
			}
			return entry, nil
		}
		return nil, err
	}
	return entry, nil
}

func (e *Engine) initializeAndResync(ctx context.Context, entry *dcpool.Entry) error {
	gw := tlcodec.NewWriter(16)
	tl.GetConfig{}.Encode(gw)

	iw := tlcodec.NewWriter(128)
	tl.InitConnection{
		APIID:          e.info.APIID,
		DeviceModel:    e.info.DeviceModel,
		SystemVersion:  e.info.SystemVersion,
		AppVersion:     e.info.AppVersion,
		SystemLangCode: e.info.SystemLangCode,
		LangPack:       e.info.LangPack,
		LangCode:       e.info.LangCode,
		Query:          gw.Bytes(),
	}.Encode(iw)

	res, err := entry.Call(ctx, "invokeWithLayer", tl.InvokeWithLayer{Layer: tl.SchemaLayer, Query: iw.Bytes()})
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}

	return e.resync(ctx, entry)
}

// pingLoop sends a keepalive ping whenever no update has been observed
// for idleTimeout.
func (e *Engine) pingLoop(ctx context.Context) error {
	ticker := time.NewTicker(idleTimeout / 4)
	defer ticker.Stop()

	var seq int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Since(time.Unix(0, e.lastActivity.Load())) < idleTimeout {
				continue
			}
			entry, ok := e.pool.Get(e.pool.HomeDC())
			if !ok {
				continue
			}
			seq++
			if err := entry.SendNoWait(tl.Ping{PingID: seq}); err != nil {
				e.logger.Warn("keepalive ping failed", "error", err)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
