package endpoints

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
	"github.com/goliatone/go-careteam-sync/pkg/testsupport"
)

var noOpts = cache.QueryOptions{}

type harness struct {
	ctx      context.Context
	backend  *testsupport.Backend
	engine   *cache.Engine
	token    *atomic.Value
	users    *Users
	messages *Messages
	surveys  *Surveys
	careTeam *CareTeam
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	backend := testsupport.NewBackend(t)
	engine, err := cache.New(cache.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(engine.Teardown)

	client, err := api.NewClient(api.Config{BaseURL: backend.URL(), Timeout: 2 * time.Second})
	require.NoError(t, err)

	token := &atomic.Value{}
	token.Store("")
	authed := client.WithToken(func() string { return token.Load().(string) })

	h := &harness{ctx: ctx, backend: backend, engine: engine, token: token}
	h.users, err = NewUsers(engine, client)
	require.NoError(t, err)
	h.surveys, err = NewSurveys(engine, client)
	require.NoError(t, err)
	h.messages, err = NewMessages(engine, authed)
	require.NoError(t, err)
	h.careTeam, err = NewCareTeam(engine, authed)
	require.NoError(t, err)
	return h
}

func waitUsers(h *harness, sub *cache.Subscription) ([]domain.User, error) {
	return cache.WaitAs[[]domain.User](h.ctx, sub)
}

func waitMessages(h *harness, sub *cache.Subscription) ([]domain.ChatMessage, error) {
	return cache.WaitAs[[]domain.ChatMessage](h.ctx, sub)
}
