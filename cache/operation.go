package cache

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
)

// Kind tells the engine whether an operation reads (query) or writes (mutation).
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// FetchFn performs the network call for an operation.
type FetchFn func(ctx context.Context, arg any) (any, error)

// Operation describes one query or mutation of an endpoint.
//
// Queries may declare ProvidesTags; mutations may declare InvalidatesTags.
// Declaring the other hook is rejected at registration.
type Operation struct {
	Name            string
	Kind            Kind
	Fetch           FetchFn
	ProvidesTags    TagsFn
	InvalidatesTags TagsFn

	// InvalidateOnError applies InvalidatesTags when the mutation fails too.
	InvalidateOnError bool
}

// Validate implements validation.Validatable.
func (o Operation) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Name, validation.Required),
		validation.Field(&o.Kind, validation.Required, validation.In(KindQuery, KindMutation)),
		validation.Field(&o.Fetch, validation.NotNil),
		validation.Field(&o.ProvidesTags, validation.When(o.Kind == KindMutation, validation.Nil.Error("mutations cannot provide tags"))),
		validation.Field(&o.InvalidatesTags, validation.When(o.Kind == KindQuery, validation.Nil.Error("queries cannot invalidate tags"))),
		validation.Field(&o.InvalidateOnError, validation.When(o.Kind == KindQuery, validation.Empty.Error("only mutations invalidate"))),
	)
}

// EndpointConfig enumerates the operations registered under one endpoint name.
type EndpointConfig struct {
	Name       string
	Operations []Operation
}

// Validate implements validation.Validatable.
func (c EndpointConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Operations, validation.Required, validation.By(uniqueOperationNames)),
	)
}

func uniqueOperationNames(value any) error {
	ops, _ := value.([]Operation)
	seen := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		if _, dup := seen[op.Name]; dup {
			return fmt.Errorf("duplicate operation %q", op.Name)
		}
		seen[op.Name] = struct{}{}
	}
	return nil
}

// Endpoint is the handle returned by DefineEndpoint.
type Endpoint struct {
	engine *Engine
	name   string
	ops    map[string]Operation
}

// Name returns the endpoint namespace.
func (ep *Endpoint) Name() string {
	return ep.name
}

// Query subscribes to a query operation of this endpoint.
func (ep *Endpoint) Query(ctx context.Context, operation string, arg any, opts QueryOptions) (*Subscription, error) {
	return ep.engine.Query(ctx, ep.name, operation, arg, opts)
}

// Mutate runs a mutation operation of this endpoint.
func (ep *Endpoint) Mutate(ctx context.Context, operation string, arg any) (any, error) {
	return ep.engine.Mutate(ctx, ep.name, operation, arg)
}

func (ep *Endpoint) operation(name string, kind Kind) (Operation, error) {
	op, ok := ep.ops[name]
	if !ok {
		return Operation{}, errors.New(fmt.Sprintf("unknown operation %s.%s", ep.name, name), errors.CategoryNotFound).
			WithTextCode("UNKNOWN_OPERATION")
	}
	if op.Kind != kind {
		return Operation{}, errors.New(fmt.Sprintf("%s.%s is a %s, not a %s", ep.name, name, op.Kind, kind), errors.CategoryBadInput).
			WithTextCode("WRONG_OPERATION_KIND")
	}
	return op, nil
}
