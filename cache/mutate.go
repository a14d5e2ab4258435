package cache

import (
	"context"

	"go.uber.org/zap"
)

// Mutate runs endpoint.operation(arg) once, bypassing the cache. When it
// succeeds, or fails on an operation flagged InvalidateOnError, the tags it
// invalidates are applied before Mutate returns.
func (e *Engine) Mutate(ctx context.Context, endpoint, operation string, arg any) (any, error) {
	op, err := e.lookupOperation(endpoint, operation, KindMutation)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrEngineClosed
	}

	result, err := op.Fetch(ctx, arg)
	if err != nil {
		e.logger.Debug("mutation failed",
			zap.String("endpoint", endpoint),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}

	if op.InvalidatesTags != nil && (err == nil || op.InvalidateOnError) {
		var data any
		if err == nil {
			data = result
		}
		if tags := op.InvalidatesTags(data, err, arg); len(tags) > 0 {
			e.Invalidate(tags...)
		}
	}

	return result, err
}

// Invalidate marks every entry carrying a matching tag stale and refetches
// the ones with subscribers. Entries without subscribers refetch on their
// next subscription.
func (e *Engine) Invalidate(tags ...Tag) {
	if len(tags) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.invalidateLocked(tags)
}

func (e *Engine) invalidateLocked(tags []Tag) {
	set := newTagSet(tags)
	var matched []*entry

	for _, ent := range e.entries {
		if set.intersects(ent.tags) {
			ent.stale = true
			matched = append(matched, ent)
		}
	}
	e.retained.Range(func(_ string, ent *entry) bool {
		if set.intersects(ent.tags) {
			ent.stale = true
		}
		return true
	})

	for _, ent := range matched {
		if ent.inflight {
			ent.refetchAfterSettle = true
			continue
		}
		if len(ent.subs) > 0 {
			e.startFetchLocked(ent)
		}
	}

	e.logger.Debug("tags invalidated",
		zap.Stringers("tags", tags),
		zap.Int("matched", len(matched)),
	)
}
