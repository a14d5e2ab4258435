package cache

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
)

// Data returns the entry's data as T. A nil payload yields the zero value.
func Data[T any](e Entry) (T, error) {
	return as[T](e.Data)
}

// WaitAs waits for the subscription to settle and returns its data as T.
func WaitAs[T any](ctx context.Context, sub *Subscription) (T, error) {
	snap, err := sub.Wait(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return Data[T](snap)
}

// QueryAs subscribes, waits for the first settled result and unsubscribes.
// It is a one-shot read through the cache.
func QueryAs[T any](ctx context.Context, ep *Endpoint, operation string, arg any) (T, error) {
	sub, err := ep.Query(ctx, operation, arg, QueryOptions{})
	if err != nil {
		var zero T
		return zero, err
	}
	defer sub.Unsubscribe()
	return WaitAs[T](ctx, sub)
}

// MutateAs runs a mutation and returns its result as T.
func MutateAs[T any](ctx context.Context, ep *Endpoint, operation string, arg any) (T, error) {
	result, err := ep.Mutate(ctx, operation, arg)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](result)
}

func as[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.New(fmt.Sprintf("cached value is %T, not %T", v, zero), errors.CategoryInternal).
			WithTextCode("TYPE_MISMATCH")
	}
	return typed, nil
}
