// Package endpoints declares the care-team API on top of the cache engine.
//
// Users and Surveys are public; Messages and CareTeam expect an
// authenticated api.Client so every call carries the bearer token.
package endpoints

import (
	"context"
	"net/url"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/cache"
)

// Tag types shared across endpoints.
const (
	TagTypeUsers        = "Users"
	TagTypeMessages     = "Messages"
	TagTypeLastMessages = "LastMessages"
	TagTypeSurveys      = "Surveys"
	TagTypeCareTeam     = "CareTeam"
)

// validatable matches request payloads carrying ozzo rules.
type validatable interface {
	Validate() error
}

func validatePayload(v validatable, what string) error {
	if err := v.Validate(); err != nil {
		return errors.FromOzzoValidation(err, "invalid "+what).
			WithTextCode("INVALID_PAYLOAD")
	}
	return nil
}

func argAs[T any](arg any, op string) (T, error) {
	v, ok := arg.(T)
	if !ok {
		var zero T
		return zero, errors.New(op+": unexpected argument type", errors.CategoryBadInput).
			WithTextCode("INVALID_ARGUMENT")
	}
	return v, nil
}

// getJSON builds a FetchFn issuing a GET and decoding into T.
func getJSON[T any](client *api.Client, path func(arg any) (string, error)) cache.FetchFn {
	return func(ctx context.Context, arg any) (any, error) {
		p, err := path(arg)
		if err != nil {
			return nil, err
		}
		var out T
		if err := client.Get(ctx, p, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func staticPath(p string) func(any) (string, error) {
	return func(any) (string, error) { return p, nil }
}

func userPath(format, op string) func(any) (string, error) {
	return func(arg any) (string, error) {
		id, err := argAs[string](arg, op)
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", errors.New(op+": userId is required", errors.CategoryBadInput).
				WithTextCode("INVALID_ARGUMENT")
		}
		return format + url.PathEscape(id), nil
	}
}
