package cache

import (
	"time"
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	StatusUninitialized Status = iota
	StatusPending
	StatusFulfilled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFulfilled:
		return "fulfilled"
	case StatusRejected:
		return "rejected"
	default:
		return "uninitialized"
	}
}

// Entry is a point-in-time view of a cached query.
//
// Data keeps the last successful result while a refetch is pending or after
// a failure; Err keeps the last failure while a refetch is pending.
type Entry struct {
	Endpoint      string
	Operation     string
	Key           string
	Arg           any
	Data          any
	Err           error
	Status        Status
	Stale         bool
	Tags          []Tag
	Subscribers   int
	FetchCount    int
	LastFetchedAt time.Time
}

// IsLoading reports a first fetch in progress: pending with nothing to show yet.
func (e Entry) IsLoading() bool {
	return e.Status == StatusPending && e.Data == nil
}

// IsFetching reports any fetch in progress, including background refetches.
func (e Entry) IsFetching() bool {
	return e.Status == StatusPending
}

// IsError reports whether the latest fetch failed.
func (e Entry) IsError() bool {
	return e.Status == StatusRejected
}

// entry is the mutable record behind Entry. All fields are guarded by Engine.mu.
type entry struct {
	endpoint  string
	operation string
	key       string
	op        Operation
	arg       any

	data          any
	err           error
	status        Status
	stale         bool
	tags          []Tag
	fetchCount    int
	lastFetchedAt time.Time

	inflight bool
	// set when an invalidation lands on an in-flight fetch; the result of
	// that fetch may predate the write, so it stays stale and is fetched again.
	refetchAfterSettle bool
	settled            chan struct{}

	subs   map[*Subscription]struct{}
	poller *poller
}

func newEntry(endpoint, operation, key string, op Operation, arg any) *entry {
	return &entry{
		endpoint:  endpoint,
		operation: operation,
		key:       key,
		op:        op,
		arg:       arg,
		status:    StatusUninitialized,
		subs:      make(map[*Subscription]struct{}),
	}
}

func (ent *entry) needsFetch() bool {
	if ent.inflight {
		return false
	}
	switch ent.status {
	case StatusUninitialized, StatusRejected:
		return true
	}
	return ent.stale
}

// pollingInterval is the smallest positive interval among the subscribers.
func (ent *entry) pollingInterval() time.Duration {
	var interval time.Duration
	for sub := range ent.subs {
		d := sub.opts.PollingInterval
		if d <= 0 {
			continue
		}
		if interval == 0 || d < interval {
			interval = d
		}
	}
	return interval
}

func (ent *entry) wants(pred func(QueryOptions) bool) bool {
	for sub := range ent.subs {
		if pred(sub.opts) {
			return true
		}
	}
	return false
}

func (ent *entry) broadcastLocked() {
	for sub := range ent.subs {
		select {
		case sub.changes <- struct{}{}:
		default:
		}
	}
}

func (ent *entry) snapshotLocked() Entry {
	return Entry{
		Endpoint:      ent.endpoint,
		Operation:     ent.operation,
		Key:           ent.key,
		Arg:           ent.arg,
		Data:          ent.data,
		Err:           ent.err,
		Status:        ent.status,
		Stale:         ent.stale,
		Tags:          append([]Tag(nil), ent.tags...),
		Subscribers:   len(ent.subs),
		FetchCount:    ent.fetchCount,
		LastFetchedAt: ent.lastFetchedAt,
	}
}
