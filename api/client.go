// Package api is the HTTP transport shared by every endpoint definition.
//
// Each operation maps to one call. Request and response bodies are JSON.
// Failures come back as *errors.Error values from go-errors:
//
//   - no response at all: CategoryExternal, text code NETWORK_ERROR, code 0
//   - 401: CategoryAuth, INVALID_CREDENTIALS
//   - 404: CategoryNotFound, NOT_FOUND
//   - 409: CategoryConflict, ALREADY_EXISTS
//   - any other non-2xx: CategoryExternal, HTTP_ERROR
//
// Non-2xx errors carry the HTTP status as Code and in Metadata["status"],
// and the decoded response body in Metadata["data"].
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// TokenSource returns the bearer token for the current session.
type TokenSource func() string

// Config holds transport settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Validate implements validation.Validatable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteHTTPURL)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

func absoluteHTTPURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return validation.NewError("validation_absolute_url", "must be an absolute http(s) URL")
	}
	return nil
}

// Client performs JSON calls against the care-team backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  TokenSource
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource makes the client authenticated. The Authorization header
// is sent on every call, with an empty token when logged out.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.token = ts
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.FromOzzoValidation(err, "invalid api configuration").
			WithTextCode("INVALID_API_CONFIG")
	}
	base, _ := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithToken returns a copy of c that authenticates with ts.
func (c *Client) WithToken(ts TokenSource) *Client {
	clone := *c
	clone.token = ts
	return &clone
}

// Authenticated reports whether requests carry an Authorization header.
func (c *Client) Authenticated() bool {
	return c.token != nil
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Patch issues a PATCH with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do performs one call. path is joined to the base URL; callers escape
// path segments themselves. A nil out discards the response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	target := c.base.String() + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "encode request body").
				WithTextCode("INVALID_REQUEST")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "build request").
			WithTextCode("INVALID_REQUEST")
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		req.Header.Set("Authorization", "Bearer "+c.token())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return errors.Wrap(err, errors.CategoryExternal, fmt.Sprintf("%s %s: no response", method, path)).
			WithTextCode("NETWORK_ERROR").
			WithCode(0).
			WithRequestID(requestID)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.CategoryExternal, fmt.Sprintf("%s %s: read response", method, path)).
			WithTextCode("NETWORK_ERROR").
			WithCode(0).
			WithRequestID(requestID)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp.StatusCode, payload).WithRequestID(requestID)
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, fmt.Sprintf("%s %s: decode response", method, path)).
			WithTextCode("INVALID_RESPONSE").
			WithCode(resp.StatusCode).
			WithRequestID(requestID)
	}
	return nil
}

func statusError(method, path string, status int, payload []byte) *errors.Error {
	category, textCode := errors.CategoryExternal, "HTTP_ERROR"
	switch status {
	case http.StatusUnauthorized:
		category, textCode = errors.CategoryAuth, "INVALID_CREDENTIALS"
	case http.StatusNotFound:
		category, textCode = errors.CategoryNotFound, "NOT_FOUND"
	case http.StatusConflict:
		category, textCode = errors.CategoryConflict, "ALREADY_EXISTS"
	}

	data := decodeData(payload)
	msg := fmt.Sprintf("%s %s: %d %s", method, path, status, http.StatusText(status))
	if m := messageOf(data); m != "" {
		msg += ": " + m
	}

	return errors.New(msg, category).
		WithCode(status).
		WithTextCode(textCode).
		WithMetadata(map[string]any{
			"status": status,
			"data":   data,
		})
}

// decodeData returns the JSON body, the raw text when it is not JSON, or nil.
func decodeData(payload []byte) any {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return string(trimmed)
	}
	return data
}

func messageOf(data any) string {
	switch v := data.(type) {
	case map[string]any:
		for _, k := range []string{"message", "error"} {
			if s, ok := v[k].(string); ok {
				return s
			}
		}
	case string:
		if len(v) <= 200 {
			return v
		}
	}
	return ""
}
