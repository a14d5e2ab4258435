package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// QueryOptions tune a single subscription.
type QueryOptions struct {
	// Skip creates an inert subscription: no entry, no fetch.
	Skip bool
	// PollingInterval refetches on a fixed cadence while subscribed.
	// Zero disables polling.
	PollingInterval time.Duration
	// RefetchOnFocus refetches when the engine is notified of focus.
	RefetchOnFocus bool
	// RefetchOnReconnect refetches when the engine is notified of a reconnect.
	RefetchOnReconnect bool
}

// Subscription is one consumer's interest in a cache entry.
type Subscription struct {
	id     string
	engine *Engine
	ent    *entry
	opts   QueryOptions

	changes chan struct{}
	done    bool
	once    sync.Once
	stopCtx func() bool
}

// Query subscribes to endpoint.operation(arg). Subscriptions sharing the same
// serialized argument share one entry and at most one in-flight fetch.
//
// The subscription ends when ctx is done or Unsubscribe is called.
func (e *Engine) Query(ctx context.Context, endpoint, operation string, arg any, opts QueryOptions) (*Subscription, error) {
	op, err := e.lookupOperation(endpoint, operation, KindQuery)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		id:      uuid.NewString(),
		engine:  e,
		opts:    opts,
		changes: make(chan struct{}, 1),
	}

	if opts.Skip {
		sub.done = true
		close(sub.changes)
		return sub, nil
	}

	key := e.key(endpoint, operation, arg)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	ent := e.acquireLocked(endpoint, operation, key, op, arg)
	sub.ent = ent
	ent.subs[sub] = struct{}{}

	if ent.needsFetch() {
		e.startFetchLocked(ent)
	}
	e.reschedulePollingLocked(ent)

	if ctx != nil && ctx.Done() != nil {
		sub.stopCtx = context.AfterFunc(ctx, sub.Unsubscribe)
	}
	return sub, nil
}

// ID uniquely identifies the subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Key is the cache key this subscription reads, empty when skipped.
func (s *Subscription) Key() string {
	if s.ent == nil {
		return ""
	}
	return s.ent.key
}

// Snapshot returns the current state of the subscribed entry. A skipped
// subscription always reports StatusUninitialized.
func (s *Subscription) Snapshot() Entry {
	if s.ent == nil {
		return Entry{Status: StatusUninitialized}
	}
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.ent.snapshotLocked()
}

// Changes signals when the entry may have changed. Signals coalesce; read
// Snapshot after each one. The channel is closed when the subscription ends.
func (s *Subscription) Changes() <-chan struct{} {
	return s.changes
}

// Wait blocks until no fetch is in progress and returns the settled state.
// The returned error is the entry's error, if the latest fetch failed.
func (s *Subscription) Wait(ctx context.Context) (Entry, error) {
	if s.ent == nil {
		return Entry{Status: StatusUninitialized}, nil
	}

	for {
		s.engine.mu.Lock()
		if s.engine.closed {
			snap := s.ent.snapshotLocked()
			s.engine.mu.Unlock()
			return snap, ErrEngineClosed
		}
		if s.done || !s.ent.inflight {
			snap := s.ent.snapshotLocked()
			s.engine.mu.Unlock()
			return snap, snap.Err
		}
		settled := s.ent.settled
		s.engine.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

// Refetch forces a fetch for the subscribed entry unless one is in flight.
func (s *Subscription) Refetch() {
	if s.ent == nil {
		return
	}
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.done || e.closed || s.ent.inflight {
		return
	}
	e.startFetchLocked(s.ent)
}

// Unsubscribe ends the subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.ent == nil {
			return
		}

		e := s.engine
		e.mu.Lock()
		defer e.mu.Unlock()

		if s.stopCtx != nil {
			s.stopCtx()
		}
		if s.done {
			return
		}
		ent := s.ent
		delete(ent.subs, s)
		s.closeLocked()

		if len(ent.subs) == 0 && !ent.inflight {
			e.retireLocked(ent)
			return
		}
		e.reschedulePollingLocked(ent)
	})
}

func (s *Subscription) closeLocked() {
	if s.done {
		return
	}
	s.done = true
	close(s.changes)
}

// Refetch forces a fetch of endpoint.operation(arg) if it has subscribers and
// nothing is in flight. An unsubscribed entry is only marked stale.
func (e *Engine) Refetch(endpoint, operation string, arg any) error {
	if _, err := e.lookupOperation(endpoint, operation, KindQuery); err != nil {
		return err
	}
	key := e.key(endpoint, operation, arg)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if ent, ok := e.entries[key]; ok {
		if !ent.inflight && len(ent.subs) > 0 {
			e.startFetchLocked(ent)
		}
		return nil
	}
	if ent, ok := e.retained.Peek(key); ok {
		ent.stale = true
	}
	return nil
}
