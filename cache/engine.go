package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-careteam-sync/internal/cacheinfra"
	"github.com/goliatone/go-careteam-sync/internal/clock"
)

// ErrEngineClosed is returned by operations issued after Teardown.
var ErrEngineClosed = errors.New("cache engine has been torn down", errors.CategoryOperation).
	WithTextCode("ENGINE_CLOSED")

// Engine is a tag-invalidated request cache shared by any number of endpoints.
//
// Bookkeeping (subscriber registration, in-flight checks, stale marking)
// happens under a single mutex; network calls run outside it. Fetches run
// under the engine's own context so a subscriber leaving never aborts them.
type Engine struct {
	mu sync.Mutex

	cfg    Config
	logger *zap.Logger
	clock  clock.Clock
	keys   KeySerializer

	endpoints *xsync.MapOf[string, *Endpoint]
	entries   map[string]*entry
	retained  *cacheinfra.RetainedStore[*entry]

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces the wall clock driving polling and fetch timestamps.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithKeySerializer replaces the default reflection-based key serializer.
func WithKeySerializer(ks KeySerializer) Option {
	return func(e *Engine) {
		if ks != nil {
			e.keys = ks
		}
	}
}

// New creates an engine. Call Teardown to stop polling and release entries.
func New(cfg Config, opts ...Option) (*Engine, error) {
	retained, err := cacheinfra.NewRetainedStore[*entry](cfg.toInternal())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid cache configuration").
			WithTextCode("INVALID_CACHE_CONFIG")
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:       cfg,
		logger:    zap.NewNop(),
		clock:     clock.Real(),
		keys:      NewDefaultKeySerializer(),
		endpoints: xsync.NewMapOf[string, *Endpoint](),
		entries:   make(map[string]*entry),
		retained:  retained,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// DefineEndpoint registers a named namespace of operations.
// Invalid definitions and duplicate names are configuration errors.
func (e *Engine) DefineEndpoint(cfg EndpointConfig) (*Endpoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.FromOzzoValidation(err, fmt.Sprintf("invalid endpoint definition %q", cfg.Name)).
			WithTextCode("INVALID_ENDPOINT")
	}

	ep := &Endpoint{
		engine: e,
		name:   cfg.Name,
		ops:    make(map[string]Operation, len(cfg.Operations)),
	}
	for _, op := range cfg.Operations {
		ep.ops[op.Name] = op
	}

	if _, loaded := e.endpoints.LoadOrStore(cfg.Name, ep); loaded {
		return nil, errors.New(fmt.Sprintf("endpoint %q is already defined", cfg.Name), errors.CategoryConflict).
			WithTextCode("DUPLICATE_ENDPOINT")
	}

	e.logger.Debug("endpoint defined",
		zap.String("endpoint", cfg.Name),
		zap.Int("operations", len(cfg.Operations)),
	)
	return ep, nil
}

// Endpoint returns a previously defined endpoint.
func (e *Engine) Endpoint(name string) (*Endpoint, bool) {
	return e.endpoints.Load(name)
}

func (e *Engine) lookupOperation(endpoint, operation string, kind Kind) (Operation, error) {
	ep, ok := e.endpoints.Load(endpoint)
	if !ok {
		return Operation{}, errors.New(fmt.Sprintf("unknown endpoint %q", endpoint), errors.CategoryNotFound).
			WithTextCode("UNKNOWN_ENDPOINT")
	}
	return ep.operation(operation, kind)
}

func (e *Engine) key(endpoint, operation string, arg any) string {
	return e.keys.SerializeKey(operationKeyPrefix(endpoint, operation), arg)
}

// Lookup returns the current view of a cached query without subscribing.
func (e *Engine) Lookup(endpoint, operation string, arg any) (Entry, bool) {
	key := e.key(endpoint, operation, arg)

	e.mu.Lock()
	defer e.mu.Unlock()

	if ent, ok := e.entries[key]; ok {
		return ent.snapshotLocked(), true
	}
	if ent, ok := e.retained.Peek(key); ok {
		return ent.snapshotLocked(), true
	}
	return Entry{}, false
}

// Teardown stops every poller, ends every subscription and drops all entries.
// In-flight fetches are cancelled through the engine context.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.cancel()

	for _, ent := range e.entries {
		if ent.poller != nil {
			ent.poller.stop()
			ent.poller = nil
		}
		for sub := range ent.subs {
			sub.closeLocked()
		}
		ent.subs = make(map[*Subscription]struct{})
	}
	e.entries = make(map[string]*entry)
	e.retained.Clear()
}

// acquireLocked finds or creates the live entry for key, reviving it from
// the retained store when its last subscriber left recently.
func (e *Engine) acquireLocked(endpoint, operation, key string, op Operation, arg any) *entry {
	if ent, ok := e.entries[key]; ok {
		return ent
	}
	if ent, ok := e.retained.Take(key); ok {
		e.entries[key] = ent
		return ent
	}
	ent := newEntry(endpoint, operation, key, op, arg)
	e.entries[key] = ent
	return ent
}

// retireLocked moves an idle entry out of the live set.
func (e *Engine) retireLocked(ent *entry) {
	if e.closed || e.entries[ent.key] != ent {
		return
	}
	if ent.poller != nil {
		ent.poller.stop()
		ent.poller = nil
	}
	delete(e.entries, ent.key)
	e.retained.Put(ent.key, ent)
}

func (e *Engine) startFetchLocked(ent *entry) {
	// An entry that has never settled has no tags yet. Derive them from the
	// argument so an invalidation during the first fetch still matches.
	if len(ent.tags) == 0 && ent.op.ProvidesTags != nil {
		ent.tags = ent.op.ProvidesTags(nil, nil, ent.arg)
	}

	ent.inflight = true
	ent.status = StatusPending
	ent.fetchCount++
	ent.settled = make(chan struct{})
	ent.broadcastLocked()

	fetch := ent.op.Fetch
	arg := ent.arg
	ctx := e.ctx

	go func() {
		data, err := fetch(ctx, arg)
		e.settle(ent, data, err)
	}()
}

func (e *Engine) settle(ent *entry, data any, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent.inflight = false
	ent.lastFetchedAt = e.clock.Now()

	again := ent.refetchAfterSettle
	ent.refetchAfterSettle = false

	if err != nil {
		ent.status = StatusRejected
		ent.err = err
		e.logger.Debug("query fetch failed",
			zap.String("endpoint", ent.endpoint),
			zap.String("operation", ent.operation),
			zap.String("key", ent.key),
			zap.Error(err),
		)
	} else {
		ent.status = StatusFulfilled
		ent.data = data
		ent.err = nil
		ent.stale = again
	}

	if ent.op.ProvidesTags != nil {
		var result any
		if err == nil {
			result = data
		}
		ent.tags = ent.op.ProvidesTags(result, err, ent.arg)
	}

	close(ent.settled)
	ent.broadcastLocked()

	if e.closed {
		return
	}
	if len(ent.subs) == 0 {
		e.retireLocked(ent)
		return
	}
	if again {
		e.startFetchLocked(ent)
	}
}
