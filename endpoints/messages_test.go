package endpoints

import (
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
)

func TestConversationOptions(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		active bool
		want   cache.QueryOptions
	}{
		{name: "empty id", userID: "", active: true, want: cache.QueryOptions{Skip: true}},
		{name: "web simulation", userID: domain.WebSimulationUserID, active: true, want: cache.QueryOptions{Skip: true}},
		{name: "active", userID: "u1", active: true, want: cache.QueryOptions{
			PollingInterval:    5 * time.Second,
			RefetchOnFocus:     true,
			RefetchOnReconnect: true,
		}},
		{name: "inactive", userID: "u1", active: false, want: cache.QueryOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConversationOptions(tt.userID, tt.active))
		})
	}
}

func TestMessages_SendInvalidatesOnlyRecipient(t *testing.T) {
	h := newHarness(t)
	h.token.Store("tok")
	h.backend.SeedMessages("u1", domain.ChatMessage{Role: domain.RoleUser, Content: "hello", Agent: "u1"})
	h.backend.SeedMessages("u2", domain.ChatMessage{Role: domain.RoleUser, Content: "hi", Agent: "u2"})

	u1, err := h.messages.GetUserMessages(h.ctx, "u1", noOpts)
	require.NoError(t, err)
	defer u1.Unsubscribe()
	u2, err := h.messages.GetUserMessages(h.ctx, "u2", noOpts)
	require.NoError(t, err)
	defer u2.Unsubscribe()
	inbox, err := h.messages.GetLastMessages(h.ctx, noOpts)
	require.NoError(t, err)
	defer inbox.Unsubscribe()

	_, err = waitMessages(h, u1)
	require.NoError(t, err)
	_, err = waitMessages(h, u2)
	require.NoError(t, err)
	_, err = inbox.Wait(h.ctx)
	require.NoError(t, err)

	err = h.messages.SendMessage(h.ctx, domain.SendMessageRequest{To: "u1", Message: "reply", Agent: "m1"})
	require.NoError(t, err)

	msgs, err := waitMessages(h, u1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "reply", msgs[1].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)

	last, err := cache.WaitAs[[]domain.LastMessage](h.ctx, inbox)
	require.NoError(t, err)
	assert.Len(t, last, 2)

	assert.Equal(t, 2, u1.Snapshot().FetchCount)
	assert.Equal(t, 1, u2.Snapshot().FetchCount)
	assert.Equal(t, 2, inbox.Snapshot().FetchCount)
	assert.Equal(t, 3, h.backend.Calls("GET /api/messages/{userId}"))

	for _, header := range h.backend.Authorizations() {
		assert.Equal(t, "Bearer tok", header)
	}
}

func TestMessages_MarkReadInvalidatesConversation(t *testing.T) {
	h := newHarness(t)
	h.backend.SeedMessages("u1", domain.ChatMessage{Role: domain.RoleUser, Content: "hello"})

	inbox, err := h.messages.GetLastMessages(h.ctx, noOpts)
	require.NoError(t, err)
	defer inbox.Unsubscribe()
	last, err := cache.WaitAs[[]domain.LastMessage](h.ctx, inbox)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, 1, last[0].Unread)

	require.NoError(t, h.messages.MarkMessagesAsRead(h.ctx, "u1"))

	last, err = cache.WaitAs[[]domain.LastMessage](h.ctx, inbox)
	require.NoError(t, err)
	assert.Equal(t, 0, last[0].Unread)
	assert.Equal(t, 1, h.backend.Calls("PATCH /api/messages/{userId}/mark-read"))
}

func TestMessages_FailedSendStillRefetches(t *testing.T) {
	h := newHarness(t)
	h.backend.SeedMessages("u1", domain.ChatMessage{Role: domain.RoleUser, Content: "hello"})

	sub, err := h.messages.GetUserMessages(h.ctx, "u1", noOpts)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	_, err = sub.Wait(h.ctx)
	require.NoError(t, err)

	h.backend.Fail("POST /api/send-message", http.StatusBadGateway, map[string]any{"message": "upstream down"})
	err = h.messages.SendMessage(h.ctx, domain.SendMessageRequest{To: "u1", Message: "reply"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, api.StatusCode(err))
	assert.Equal(t, map[string]any{"message": "upstream down"}, api.ResponseData(err))

	_, err = sub.Wait(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Snapshot().FetchCount)
}

func TestMessages_BlankMessageRejectedBeforeNetwork(t *testing.T) {
	h := newHarness(t)

	err := h.messages.SendMessage(h.ctx, domain.SendMessageRequest{To: "u1", Message: "  "})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Equal(t, 0, h.backend.Calls("POST /api/send-message"))
}

func TestMessages_RefetchFailureKeepsConversation(t *testing.T) {
	h := newHarness(t)
	h.backend.SeedMessages("u1", domain.ChatMessage{Role: domain.RoleUser, Content: "hello"})

	sub, err := h.messages.GetUserMessages(h.ctx, "u1", noOpts)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	_, err = sub.Wait(h.ctx)
	require.NoError(t, err)

	h.backend.Fail("GET /api/messages/{userId}", http.StatusInternalServerError, nil)
	sub.Refetch()
	snap, err := sub.Wait(h.ctx)
	require.Error(t, err)

	msgs, derr := cache.Data[[]domain.ChatMessage](snap)
	require.NoError(t, derr)
	assert.Len(t, msgs, 1)
	assert.True(t, snap.IsError())
}

func TestMessages_SkippedConversation(t *testing.T) {
	h := newHarness(t)

	sub, err := h.messages.GetUserMessages(h.ctx, domain.WebSimulationUserID, ConversationOptions(domain.WebSimulationUserID, true))
	require.NoError(t, err)
	assert.Equal(t, cache.StatusUninitialized, sub.Snapshot().Status)
	assert.Equal(t, 0, h.backend.Calls("GET /api/messages/{userId}"))
}
