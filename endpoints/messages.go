package endpoints

import (
	"context"
	"time"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
)

const (
	MessagesEndpoint = "messages"

	OpGetUserMessages    = "getUserMessages"
	OpGetLastMessages    = "getLastMessages"
	OpSendMessage        = "sendMessage"
	OpMarkMessagesAsRead = "markMessagesAsRead"
)

// DefaultPollingInterval is how often an open conversation is refreshed.
const DefaultPollingInterval = 5 * time.Second

// LastMessagesTag labels the inbox summary.
var LastMessagesTag = cache.TypeTag(TagTypeLastMessages)

// MessagesTag scopes a conversation to one user.
func MessagesTag(userID string) cache.Tag {
	return cache.IDTag(TagTypeMessages, userID)
}

// ConversationOptions returns the query options for a conversation view.
// An active view polls and refetches on focus and reconnect. An empty id or
// the web simulation id is skipped.
func ConversationOptions(userID string, active bool) cache.QueryOptions {
	if userID == "" || userID == domain.WebSimulationUserID {
		return cache.QueryOptions{Skip: true}
	}
	if !active {
		return cache.QueryOptions{}
	}
	return cache.QueryOptions{
		PollingInterval:    DefaultPollingInterval,
		RefetchOnFocus:     true,
		RefetchOnReconnect: true,
	}
}

// Messages exposes conversation endpoints. The client must be authenticated.
type Messages struct {
	ep *cache.Endpoint
}

// NewMessages registers the messages endpoint on engine.
func NewMessages(engine *cache.Engine, client *api.Client) (*Messages, error) {
	ep, err := engine.DefineEndpoint(cache.EndpointConfig{
		Name: MessagesEndpoint,
		Operations: []cache.Operation{
			{
				Name:  OpGetUserMessages,
				Kind:  cache.KindQuery,
				Fetch: getJSON[[]domain.ChatMessage](client, userPath("/api/messages/", OpGetUserMessages)),
				ProvidesTags: func(_ any, _ error, arg any) []cache.Tag {
					id, _ := arg.(string)
					return []cache.Tag{MessagesTag(id)}
				},
			},
			{
				Name:         OpGetLastMessages,
				Kind:         cache.KindQuery,
				Fetch:        getJSON[[]domain.LastMessage](client, staticPath("/api/messages/last-messages")),
				ProvidesTags: cache.StaticTags(LastMessagesTag),
			},
			{
				Name: OpSendMessage,
				Kind: cache.KindMutation,
				Fetch: func(ctx context.Context, arg any) (any, error) {
					req, err := argAs[domain.SendMessageRequest](arg, OpSendMessage)
					if err != nil {
						return nil, err
					}
					if err := validatePayload(req, "message"); err != nil {
						return nil, err
					}
					var out domain.SuccessResponse
					if err := client.Post(ctx, "/api/send-message", req, &out); err != nil {
						return nil, err
					}
					return out, nil
				},
				InvalidatesTags: func(_ any, _ error, arg any) []cache.Tag {
					req, _ := arg.(domain.SendMessageRequest)
					if req.To == "" {
						return nil
					}
					return []cache.Tag{MessagesTag(req.To), LastMessagesTag}
				},
				InvalidateOnError: true,
			},
			{
				Name: OpMarkMessagesAsRead,
				Kind: cache.KindMutation,
				Fetch: func(ctx context.Context, arg any) (any, error) {
					path, err := userPath("/api/messages/", OpMarkMessagesAsRead)(arg)
					if err != nil {
						return nil, err
					}
					if err := client.Patch(ctx, path+"/mark-read", nil, nil); err != nil {
						return nil, err
					}
					return nil, nil
				},
				InvalidatesTags: func(_ any, _ error, arg any) []cache.Tag {
					id, _ := arg.(string)
					if id == "" {
						return nil
					}
					return []cache.Tag{MessagesTag(id), LastMessagesTag}
				},
				InvalidateOnError: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Messages{ep: ep}, nil
}

// Endpoint returns the underlying cache endpoint.
func (m *Messages) Endpoint() *cache.Endpoint { return m.ep }

// GetUserMessages subscribes to one conversation. Use ConversationOptions
// for the view defaults.
func (m *Messages) GetUserMessages(ctx context.Context, userID string, opts cache.QueryOptions) (*cache.Subscription, error) {
	return m.ep.Query(ctx, OpGetUserMessages, userID, opts)
}

// GetLastMessages subscribes to the newest message of every conversation.
func (m *Messages) GetLastMessages(ctx context.Context, opts cache.QueryOptions) (*cache.Subscription, error) {
	return m.ep.Query(ctx, OpGetLastMessages, nil, opts)
}

// SendMessage posts a reply. The conversation refetches afterwards; the
// message is not appended locally.
func (m *Messages) SendMessage(ctx context.Context, req domain.SendMessageRequest) error {
	_, err := m.ep.Mutate(ctx, OpSendMessage, req)
	return err
}

// MarkMessagesAsRead clears the unread count of a conversation.
func (m *Messages) MarkMessagesAsRead(ctx context.Context, userID string) error {
	_, err := m.ep.Mutate(ctx, OpMarkMessagesAsRead, userID)
	return err
}
