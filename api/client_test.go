package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "http", cfg: Config{BaseURL: "http://localhost:3000"}},
		{name: "https with path", cfg: Config{BaseURL: "https://api.example.com/v1/", Timeout: time.Second}},
		{name: "missing", cfg: Config{}, wantErr: true},
		{name: "relative", cfg: Config{BaseURL: "/api"}, wantErr: true},
		{name: "wrong scheme", cfg: Config{BaseURL: "ftp://example.com"}, wantErr: true},
		{name: "negative timeout", cfg: Config{BaseURL: "http://x", Timeout: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := NewClient(Config{BaseURL: "nope"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestClient_SendsHeadersAndDecodes(t *testing.T) {
	var got *http.Request
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"userId":"1","userName":"Alice"}]`))
	})

	token := "tok"
	client, err := NewClient(Config{BaseURL: srv.URL + "/"}, WithTokenSource(func() string { return token }))
	require.NoError(t, err)

	var out []map[string]string
	require.NoError(t, client.Get(context.Background(), "/api/users", &out))

	assert.Equal(t, "/api/users", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get(RequestIDHeader))
	assert.Equal(t, "Alice", out[0]["userName"])
}

func TestClient_EmptyTokenStillSendsHeader(t *testing.T) {
	var header []string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Values("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	client, err := NewClient(Config{BaseURL: srv.URL}, WithTokenSource(func() string { return "" }))
	require.NoError(t, err)
	require.NoError(t, client.Patch(context.Background(), "/api/messages/u1/mark-read", nil, nil))

	assert.Equal(t, []string{"Bearer"}, header, "net/http trims the empty token but the scheme is still sent")
	assert.True(t, client.Authenticated())
}

func TestClient_UnauthenticatedOmitsHeader(t *testing.T) {
	var header []string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Values("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, client.Get(context.Background(), "/api/surveys", nil))
	assert.Empty(t, header)

	authed := client.WithToken(func() string { return "x" })
	assert.True(t, authed.Authenticated())
	assert.False(t, client.Authenticated())
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category errors.Category
		textCode string
		data     any
		check    func(error) bool
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"message":"invalid email or password"}`,
			category: errors.CategoryAuth,
			textCode: "INVALID_CREDENTIALS",
			data:     map[string]any{"message": "invalid email or password"},
			check:    IsUnauthorized,
		},
		{
			name:     "conflict",
			status:   http.StatusConflict,
			body:     `{"message":"exists"}`,
			category: errors.CategoryConflict,
			textCode: "ALREADY_EXISTS",
			data:     map[string]any{"message": "exists"},
			check:    IsConflict,
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			category: errors.CategoryNotFound,
			textCode: "NOT_FOUND",
			check:    IsNotFound,
		},
		{
			name:     "server error with text body",
			status:   http.StatusInternalServerError,
			body:     "boom",
			category: errors.CategoryExternal,
			textCode: "HTTP_ERROR",
			data:     "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			client, err := NewClient(Config{BaseURL: srv.URL})
			require.NoError(t, err)

			err = client.Post(context.Background(), "/api/careteam/login", map[string]string{"email": "a"}, nil)
			require.Error(t, err)

			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.category, e.Category)
			assert.Equal(t, tt.textCode, e.TextCode)
			assert.Equal(t, tt.status, e.Code)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.data, ResponseData(err))
			if tt.check != nil {
				assert.True(t, tt.check(err))
			}
			assert.False(t, IsNetwork(err))
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: base, Timeout: time.Second})
	require.NoError(t, err)

	err = client.Get(context.Background(), "/api/users", nil)
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, 0, StatusCode(err))
	assert.True(t, errors.IsCategory(err, errors.CategoryExternal))
}

func TestClient_InvalidResponseBody(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	var out []string
	err = client.Get(context.Background(), "/api/user-ids", &out)
	require.Error(t, err)

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "INVALID_RESPONSE", e.TextCode)
}
