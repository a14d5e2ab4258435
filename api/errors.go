package api

import (
	"github.com/goliatone/go-errors"
)

// StatusCode returns the HTTP status carried by err, or 0 when the call got
// no response or err did not come from a Client.
func StatusCode(err error) int {
	var e *errors.Error
	if !errors.As(err, &e) {
		return 0
	}
	if status, ok := e.Metadata["status"].(int); ok {
		return status
	}
	return 0
}

// ResponseData returns the decoded error body carried by err, if any.
func ResponseData(err error) any {
	var e *errors.Error
	if !errors.As(err, &e) {
		return nil
	}
	return e.Metadata["data"]
}

// IsUnauthorized reports a rejected credential or token.
func IsUnauthorized(err error) bool {
	return errors.IsCategory(err, errors.CategoryAuth)
}

// IsConflict reports a duplicate resource.
func IsConflict(err error) bool {
	return errors.IsCategory(err, errors.CategoryConflict)
}

// IsNotFound reports a missing resource.
func IsNotFound(err error) bool {
	return errors.IsCategory(err, errors.CategoryNotFound)
}

// IsNetwork reports a call that never got a response.
func IsNetwork(err error) bool {
	var e *errors.Error
	return errors.As(err, &e) && e.TextCode == "NETWORK_ERROR"
}
