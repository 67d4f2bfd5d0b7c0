// Package client is the module's top-level surface: it wires configuration,
// the per-DC connection pool, the update engine, and a session backend into
// a single handle, and layers login, pagination, and chat-action helpers on
// top of the raw RPC call shape internal/dcpool exposes.
//
// Its constructor mirrors internal/updates.Engine's own role as a
// supervising owner of a *dcpool.Pool: New builds the pool, restores any
// persisted session, constructs the engine, and cross-wires the two before
// handing back a ready-to-Run Client.
package client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ankit-chaubey/layer/internal/config"
	"github.com/ankit-chaubey/layer/internal/dcpool"
	"github.com/ankit-chaubey/layer/internal/metrics"
	"github.com/ankit-chaubey/layer/internal/mtproto/transport"
	"github.com/ankit-chaubey/layer/internal/peercache"
	"github.com/ankit-chaubey/layer/internal/rpc"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/internal/updates"
	"github.com/ankit-chaubey/layer/tl"
)

// encodable is satisfied structurally by every tl request type this package
// sends, the same interface shape internal/dcpool's Entry.Call expects.
type encodable interface {
	Encode(w *tlcodec.Writer)
}

// Client is the login/RPC/pagination surface built on top of a connection
// pool and an update engine.
type Client struct {
	cfg     *config.Config
	pool    *dcpool.Pool
	engine  *updates.Engine
	backend dcpool.SessionBackend
	retry   rpc.RetryPolicy
	metrics *metrics.Collector
	logger  *slog.Logger

	info updates.ClientInfo
}

// Option configures an optional Client parameter.
type Option func(*Client)

// WithRetryPolicy overrides the default RPC retry policy (spec §4.8).
func WithRetryPolicy(p rpc.RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithMetrics attaches a Prometheus collector to the pool and its
// connections.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) { c.metrics = collector }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client from cfg: it validates the configuration, restores any
// session the configured backend holds, and constructs the pool and update
// engine but does not dial anything until Run or a Call is made.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("client: invalid config: %w", err)
	}

	c := &Client{
		cfg:    cfg,
		retry:  rpc.NewDefaultRetryPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "client"))

	if dp, ok := c.retry.(*rpc.DefaultRetryPolicy); ok {
		if cfg.Retry.FloodWaitThreshold > 0 {
			dp.FloodWaitThreshold = cfg.Retry.FloodWaitThreshold
		}
		if cfg.Retry.IOBackoff != "" {
			backoff, err := time.ParseDuration(cfg.Retry.IOBackoff)
			if err != nil {
				return nil, fmt.Errorf("client: parse retry.io_backoff: %w", err)
			}
			dp.IOBackoff = backoff
		}
	}

	backend, err := newSessionBackend(cfg.Session)
	if err != nil {
		return nil, err
	}
	c.backend = backend

	var secret []byte
	if cfg.Transport.Secret != "" {
		secret, err = hex.DecodeString(cfg.Transport.Secret)
		if err != nil {
			return nil, fmt.Errorf("client: decode transport.secret: %w", err)
		}
	}

	poolOpts := []dcpool.Option{
		dcpool.WithTransportKind(transport.Kind(cfg.Transport.Kind)),
		dcpool.WithObfuscatedSecret(secret),
		dcpool.WithAllowIPv6(cfg.DC.AllowIPv6),
		dcpool.WithLogger(c.logger),
	}
	if c.metrics != nil {
		poolOpts = append(poolOpts, dcpool.WithMetrics(c.metrics))
	}
	c.pool = dcpool.NewPool(cfg.DC.ID, poolOpts...)

	homeDC, records, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("client: load session: %w", err)
	}
	c.pool.Seed(homeDC, records)
	if cfg.DC.Addr != "" {
		c.pool.LearnAddr(c.pool.HomeDC(), cfg.DC.Addr, tl.DcOption{})
	}

	c.info = updates.ClientInfo{
		APIID:         cfg.API.ID,
		DeviceModel:   cfg.API.DeviceModel,
		SystemVersion: cfg.API.SystemVersion,
		AppVersion:    cfg.API.AppVersion,
		LangCode:      cfg.API.LangCode,
	}
	c.engine = updates.New(c.pool, c.info, c.metrics, c.logger)
	c.pool.SetSink(c.engine)

	return c, nil
}

// newSessionBackend selects a SessionBackend per cfg.Backend. config.Validate
// already rejects any value other than "file" or "memory".
func newSessionBackend(cfg config.SessionConfig) (dcpool.SessionBackend, error) {
	switch cfg.Backend {
	case "file":
		return dcpool.NewFileBackend(cfg.Path), nil
	case "memory":
		return newMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("client: %w: %q", config.ErrInvalidSessionBackend, cfg.Backend)
	}
}

// Peers exposes the access-hash cache populated from every decoded response
// and update.
func (c *Client) Peers() *peercache.Cache { return c.engine.Peers() }

// Updates returns the channel of classified update events.
func (c *Client) Updates() <-chan updates.Event { return c.engine.Events() }

// Run supervises the home-DC connection, including reconnects and update
// resync, until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	return c.engine.Run(ctx)
}

// Close persists the current session state via the configured backend,
// stops the update engine's delivery queue, and tears down every open
// connection.
func (c *Client) Close() error {
	c.engine.Close()
	homeDC, records := c.pool.Snapshot()
	c.pool.CloseAll()
	if err := c.backend.Save(homeDC, records); err != nil {
		return fmt.Errorf("client: save session: %w", err)
	}
	return nil
}

// Call issues an RPC against the given DC, applying the configured retry
// policy and transparently following *_MIGRATE_N redirects. dcID is
// typically c.pool.HomeDC() for user-initiated calls.
func (c *Client) Call(ctx context.Context, dcID int32, method string, body encodable) (rpc.Result, error) {
	for attempt := 1; ; attempt++ {
		entry, err := c.pool.Connect(ctx, dcID)
		if err != nil {
			return rpc.Result{}, err
		}

		res, err := entry.Call(ctx, method, body)
		if err != nil {
			decision := c.retry.Decide(attempt, err)
			if !decision.Retry {
				return rpc.Result{}, err
			}
			if werr := rpc.Sleep(ctx, decision.Wait); werr != nil {
				return rpc.Result{}, werr
			}
			continue
		}

		if res.Err != nil {
			var rpcErr *rpc.Error
			if errors.As(res.Err, &rpcErr) {
				if migrate, ok := rpc.AsMigrate(rpcErr); ok {
					dcID = migrate.DCID
					if dcID == c.pool.HomeDC() {
						if _, err := c.pool.HandleMigrate(ctx, dcID); err != nil {
							return rpc.Result{}, err
						}
					} else if _, err := c.pool.Authorize(ctx, dcID); err != nil {
						return rpc.Result{}, err
					}
					continue
				}
			}
			decision := c.retry.Decide(attempt, res.Err)
			if !decision.Retry {
				return res, res.Err
			}
			if werr := rpc.Sleep(ctx, decision.Wait); werr != nil {
				return rpc.Result{}, werr
			}
			continue
		}

		return res, nil
	}
}

// CallHome issues an RPC against the current home DC.
func (c *Client) CallHome(ctx context.Context, method string, body encodable) (rpc.Result, error) {
	return c.Call(ctx, c.pool.HomeDC(), method, body)
}

// CallAuthorized issues an RPC against dcID after ensuring the connection is
// authorized as the logged-in user, exporting/importing across DCs as
// needed (spec §4.9 "Cross-DC authorization").
func (c *Client) CallAuthorized(ctx context.Context, dcID int32, method string, body encodable) (rpc.Result, error) {
	if _, err := c.pool.Authorize(ctx, dcID); err != nil {
		return rpc.Result{}, err
	}
	return c.Call(ctx, dcID, method, body)
}
