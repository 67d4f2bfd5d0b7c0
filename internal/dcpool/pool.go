// Package dcpool implements the per-datacenter connection pool (spec
// §4.9): one encrypted session per DC ID, cross-DC authorization
// export/import, and home-DC migration on redirect errors. It shares its
// connection-table/mutex shape with dantte-lp-gobfd's internal/bfd.Manager
// (a map of live sessions guarded by one mutex, entries carrying their own
// cancellation/lifecycle), adapted from a packet-demux registry to an
// RPC-connection registry.
package dcpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ankit-chaubey/layer/internal/crypto"
	"github.com/ankit-chaubey/layer/internal/metrics"
	"github.com/ankit-chaubey/layer/internal/mtproto/transport"
	"github.com/ankit-chaubey/layer/internal/rpc"
	"github.com/ankit-chaubey/layer/internal/session"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
	"golang.org/x/sync/singleflight"
)

// BootstrapAddrs is the compiled-in DC address table (spec §6), used until
// help.getConfig supplies a richer, possibly user-region-specific table.
var BootstrapAddrs = map[int32]string{
	1: "149.154.175.53:443",
	2: "149.154.167.51:443",
	3: "149.154.175.100:443",
	4: "149.154.167.91:443",
	5: "91.108.56.130:443",
}

// DefaultHomeDC is the datacenter a fresh client without a persisted
// session connects to first (spec §6).
const DefaultHomeDC int32 = 2

// handshakeTimeout bounds a single DC handshake (spec §5 "Handshakes are
// wrapped in a 15-second overall timeout").
const handshakeTimeout = 15 * time.Second

type cachedKey struct {
	authKey    crypto.AuthKey
	firstSalt  int64
	timeOffset int32
}

// Pool owns at most one live Entry per DC ID (spec §4.9). It is not
// sharded: one pool-level mutex guards the entry, address and cached-key
// tables, and every read or write of them (Get, HomeDC, Seed, Snapshot,
// LearnAddr, Connect's inserts) takes it. The mutex is not held while
// dialing or handshaking, so two goroutines dialing different DCs contend
// only for those short table accesses.
type Pool struct {
	mu       sync.Mutex
	entries  map[int32]*Entry
	addrs    map[int32]string
	cached   map[int32]cachedKey
	homeDC   int32
	exportSF singleflight.Group

	transportKind transport.Kind
	secret        []byte
	allowIPv6     bool

	sink    rpc.UpdateSink
	metrics *metrics.Collector
	logger  *slog.Logger
}

// Option configures an optional Pool parameter.
type Option func(*Pool)

// WithTransportKind selects the wire framing new connections use (spec §6
// "transport").
func WithTransportKind(kind transport.Kind) Option {
	return func(p *Pool) { p.transportKind = kind }
}

// WithObfuscatedSecret sets the proxy secret used when transportKind is
// Obfuscated2 (spec §6 "transport: ... Obfuscated2{secret?}").
func WithObfuscatedSecret(secret []byte) Option {
	return func(p *Pool) { p.secret = secret }
}

// WithAllowIPv6 controls whether IPv6 DC options from help.getConfig are
// accepted (spec §6 "allow_ipv6").
func WithAllowIPv6(allow bool) Option {
	return func(p *Pool) { p.allowIPv6 = allow }
}

// WithUpdateSink routes every connection's decoded updates to sink.
func WithUpdateSink(sink rpc.UpdateSink) Option {
	return func(p *Pool) { p.sink = sink }
}

// WithMetrics attaches a metrics collector to every connection's router.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pool) { p.metrics = collector }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// NewPool creates a Pool with the compiled-in bootstrap address table and
// no cached keys; call Seed to restore a persisted session first.
func NewPool(homeDC int32, opts ...Option) *Pool {
	addrs := make(map[int32]string, len(BootstrapAddrs))
	for dc, addr := range BootstrapAddrs {
		addrs[dc] = addr
	}

	p := &Pool{
		entries:       make(map[int32]*Entry),
		addrs:         addrs,
		cached:        make(map[int32]cachedKey),
		homeDC:        homeDC,
		transportKind: transport.KindIntermediate,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "dcpool"))
	return p
}

// Seed restores persisted auth keys and addresses, e.g. from a
// SessionBackend.Load call at startup. It never dials; connections are
// established lazily on first use.
func (p *Pool) Seed(homeDC int32, records []Record) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if homeDC != 0 {
		p.homeDC = homeDC
	}
	for _, rec := range records {
		if rec.Addr != "" {
			p.addrs[rec.DCID] = rec.Addr
		}
		if rec.AuthKey != nil {
			p.cached[rec.DCID] = cachedKey{
				authKey:    *rec.AuthKey,
				firstSalt:  rec.FirstSalt,
				timeOffset: rec.TimeOffset,
			}
		}
	}
}

// Snapshot exports the pool's current state in the shape a SessionBackend
// persists (spec §4.9 "Session persistence").
func (p *Pool) Snapshot() (homeDC int32, records []Record) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[int32]bool)
	for dcID, e := range p.entries {
		authKey := e.Session().AuthKey()
		records = append(records, Record{
			DCID:       dcID,
			Addr:       e.Addr(),
			AuthKey:    &authKey,
			FirstSalt:  e.Session().Salt(),
			TimeOffset: e.Session().TimeOffset(),
		})
		seen[dcID] = true
	}
	for dcID, ck := range p.cached {
		if seen[dcID] {
			continue
		}
		authKey := ck.authKey
		records = append(records, Record{
			DCID:       dcID,
			Addr:       p.addrs[dcID],
			AuthKey:    &authKey,
			FirstSalt:  ck.firstSalt,
			TimeOffset: ck.timeOffset,
		})
	}
	return p.homeDC, records
}

// HomeDC reports the current home datacenter id.
func (p *Pool) HomeDC() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.homeDC
}

// SetHomeDC updates the home datacenter, e.g. after a successful
// migration (spec §4.9 "persist the new home DC").
func (p *Pool) SetHomeDC(dcID int32) {
	p.mu.Lock()
	p.homeDC = dcID
	p.mu.Unlock()
}

// LearnAddr records an address for dcID, e.g. from help.getConfig's DC
// option table (spec §4.9).
func (p *Pool) LearnAddr(dcID int32, addr string, opt tl.DcOption) {
	if opt.IPv6() && !p.allowIPv6 {
		return
	}
	if !opt.Usable() {
		return
	}
	p.mu.Lock()
	p.addrs[dcID] = addr
	p.mu.Unlock()
}

// SetSink rewires which UpdateSink new connections feed, for callers that
// must construct the pool and the update engine that observes it in two
// steps (the engine needs a *Pool to supervise, the pool needs a sink at
// entry-creation time). Entries already connected keep the sink they were
// created with.
func (p *Pool) SetSink(sink rpc.UpdateSink) {
	p.mu.Lock()
	p.sink = sink
	p.mu.Unlock()
}

// Get returns the live entry for dcID, if one exists, without dialing.
func (p *Pool) Get(dcID int32) (*Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[dcID]
	return e, ok
}

// Connect returns the pool's entry for dcID, dialing and handshaking (or
// resuming a cached auth key) if none exists yet (spec §4.9 "one
// encrypted session per DC ID").
func (p *Pool) Connect(ctx context.Context, dcID int32) (*Entry, error) {
	if e, ok := p.Get(dcID); ok {
		return e, nil
	}

	p.mu.Lock()
	addr, ok := p.addrs[dcID]
	cached, hasCached := p.cached[dcID]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: dc %d", ErrUnknownDC, dcID)
	}

	conn, err := transport.Dial(addr, p.transportKind, p.secret)
	if err != nil {
		return nil, fmt.Errorf("dcpool: dial dc %d at %s: %w", dcID, addr, err)
	}

	var sess *session.State
	if hasCached {
		sess, err = session.New(cached.authKey, cached.firstSalt, cached.timeOffset)
	} else {
		hsCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
		sess, err = RunHandshake(hsCtx, conn)
		cancel()
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("dcpool: establish session on dc %d: %w", dcID, err)
	}

	entry := newEntry(dcID, addr, conn, sess, p.sink, p.metrics, p.logger)
	if p.metrics != nil {
		p.metrics.RegisterConnection(dcID)
	}

	p.mu.Lock()
	if existing, ok := p.entries[dcID]; ok {
		p.mu.Unlock()
		entry.Close()
		return existing, nil
	}
	p.entries[dcID] = entry
	delete(p.cached, dcID)
	p.mu.Unlock()

	return entry, nil
}

// Forget drops dcID's live entry, if any, and its cached auth key,
// forcing the next Connect to dial fresh and perform a full handshake
// (spec §4.10 "fall back to a fresh handshake" when a cached key is
// rejected by the server).
func (p *Pool) Forget(dcID int32) {
	p.mu.Lock()
	entry, ok := p.entries[dcID]
	delete(p.entries, dcID)
	delete(p.cached, dcID)
	p.mu.Unlock()
	if ok {
		entry.Close()
	}
}

// Invalidate removes dcID's entry from the live table after its
// connection has already died on its own (e.g. the read loop exited),
// preserving its auth key in the cached table so the next Connect resumes
// the same session instead of handshaking fresh (spec §4.10 "prefer
// connect_with_key using the cached auth key").
func (p *Pool) Invalidate(dcID int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[dcID]
	if !ok {
		return
	}
	delete(p.entries, dcID)
	p.cached[dcID] = cachedKey{
		authKey:    entry.Session().AuthKey(),
		firstSalt:  entry.Session().Salt(),
		timeOffset: entry.Session().TimeOffset(),
	}
}

// HandleMigrate reconnects to dcID in response to a "*_MIGRATE_N" rpc
// error (spec §4.8, §4.9). The caller is responsible for retrying the
// original call once against the returned entry.
func (p *Pool) HandleMigrate(ctx context.Context, dcID int32) (*Entry, error) {
	return p.Connect(ctx, dcID)
}

// Authorize returns an Entry for dcID that is authorized as the same
// user/bot the home DC is logged in as (spec §4.9 "Cross-DC
// authorization"). For the home DC this is just Connect. For any other DC
// it exports a one-shot token from the home DC and imports it on the
// target, collapsing concurrent callers for the same DC via singleflight
// so a second caller never re-exports once the first succeeds.
func (p *Pool) Authorize(ctx context.Context, dcID int32) (*Entry, error) {
	home := p.HomeDC()
	if dcID == home {
		return p.Connect(ctx, dcID)
	}

	entry, err := p.Connect(ctx, dcID)
	if err != nil {
		return nil, err
	}
	if entry.Authorized() {
		return entry, nil
	}

	key := fmt.Sprintf("export:%d", dcID)
	_, err, _ = p.exportSF.Do(key, func() (any, error) {
		if entry.Authorized() {
			return nil, nil
		}
		homeEntry, err := p.Connect(ctx, home)
		if err != nil {
			return nil, fmt.Errorf("dcpool: connect home dc %d: %w", home, err)
		}
		res, err := homeEntry.Call(ctx, "auth.exportAuthorization", tl.ExportAuthorization{DCID: dcID})
		if err != nil {
			return nil, fmt.Errorf("dcpool: auth.exportAuthorization to dc %d: %w", dcID, err)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		exported, err := decodeExportedAuthorization(res.Payload)
		if err != nil {
			return nil, fmt.Errorf("dcpool: decode auth.exportedAuthorization: %w", err)
		}
		res, err = entry.Call(ctx, "auth.importAuthorization", tl.ImportAuthorization{ID: exported.ID, Bytes: exported.Bytes})
		if err != nil {
			return nil, fmt.Errorf("dcpool: auth.importAuthorization on dc %d: %w", dcID, err)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		entry.markAuthorized()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CloseAll tears down every live connection, e.g. at shutdown.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	entries := make([]*Entry, 0, len(p.entries))
	for dcID, e := range p.entries {
		entries = append(entries, e)
		delete(p.entries, dcID)
	}
	p.mu.Unlock()

	for _, e := range entries {
		e.Close()
		if p.metrics != nil {
			p.metrics.UnregisterConnection(e.DCID())
		}
	}
}

func decodeExportedAuthorization(payload []byte) (tl.ExportedAuthorization, error) {
	return tl.DecodeExportedAuthorization(tlcodec.NewReader(payload))
}
