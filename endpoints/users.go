package endpoints

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
)

const (
	UsersEndpoint = "users"

	OpGetUsers   = "getUsers"
	OpGetUserIDs = "getUserIds"
	OpAssignName = "assignName"
	OpDeleteUser = "deleteUser"
)

// UsersTag labels both user lists.
var UsersTag = cache.TypeTag(TagTypeUsers)

// Users exposes the chat counterpart endpoints.
type Users struct {
	ep *cache.Endpoint
}

// NewUsers registers the users endpoint on engine.
func NewUsers(engine *cache.Engine, client *api.Client) (*Users, error) {
	ep, err := engine.DefineEndpoint(cache.EndpointConfig{
		Name: UsersEndpoint,
		Operations: []cache.Operation{
			{
				Name:         OpGetUsers,
				Kind:         cache.KindQuery,
				Fetch:        getJSON[[]domain.User](client, staticPath("/api/users")),
				ProvidesTags: cache.StaticTags(UsersTag),
			},
			{
				Name:         OpGetUserIDs,
				Kind:         cache.KindQuery,
				Fetch:        getJSON[[]string](client, staticPath("/api/user-ids")),
				ProvidesTags: cache.StaticTags(UsersTag),
			},
			{
				Name: OpAssignName,
				Kind: cache.KindMutation,
				Fetch: func(ctx context.Context, arg any) (any, error) {
					user, err := argAs[domain.User](arg, OpAssignName)
					if err != nil {
						return nil, err
					}
					if err := validatePayload(user, "assign name request"); err != nil {
						return nil, err
					}
					var out domain.AssignNameResponse
					if err := client.Post(ctx, "/api/users/assign-name", user, &out); err != nil {
						return nil, err
					}
					return out, nil
				},
				InvalidatesTags: cache.StaticTags(UsersTag),
			},
			{
				Name: OpDeleteUser,
				Kind: cache.KindMutation,
				Fetch: func(ctx context.Context, arg any) (any, error) {
					req, err := argAs[domain.DeleteUserRequest](arg, OpDeleteUser)
					if err != nil {
						return nil, err
					}
					if err := validatePayload(req, "delete user request"); err != nil {
						return nil, err
					}
					path, _ := userPath("/api/users/", OpDeleteUser)(req.UserID)
					var out domain.SuccessResponse
					if err := client.Delete(ctx, path, &out); err != nil {
						return nil, err
					}
					return out, nil
				},
				InvalidatesTags: cache.StaticTags(UsersTag),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Users{ep: ep}, nil
}

// Endpoint returns the underlying cache endpoint.
func (u *Users) Endpoint() *cache.Endpoint { return u.ep }

// GetUsers subscribes to the named users list.
func (u *Users) GetUsers(ctx context.Context, opts cache.QueryOptions) (*cache.Subscription, error) {
	return u.ep.Query(ctx, OpGetUsers, nil, opts)
}

// GetUserIDs subscribes to every user id seen, named or not.
func (u *Users) GetUserIDs(ctx context.Context, opts cache.QueryOptions) (*cache.Subscription, error) {
	return u.ep.Query(ctx, OpGetUserIDs, nil, opts)
}

// AssignName sets or clears a user's display name.
func (u *Users) AssignName(ctx context.Context, user domain.User) (domain.AssignNameResponse, error) {
	return cache.MutateAs[domain.AssignNameResponse](ctx, u.ep, OpAssignName, user)
}

// DeleteUser removes a user and their conversation.
func (u *Users) DeleteUser(ctx context.Context, userID string) (domain.SuccessResponse, error) {
	return cache.MutateAs[domain.SuccessResponse](ctx, u.ep, OpDeleteUser, domain.DeleteUserRequest{UserID: userID})
}

// Merged loads both user lists concurrently through the cache and merges them.
func (u *Users) Merged(ctx context.Context) ([]domain.User, error) {
	var (
		users []domain.User
		ids   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = cache.QueryAs[[]domain.User](gctx, u.ep, OpGetUsers, nil)
		return err
	})
	g.Go(func() error {
		var err error
		ids, err = cache.QueryAs[[]string](gctx, u.ep, OpGetUserIDs, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return MergeUsers(ids, users), nil
}

// MergeUsers reconciles getUserIds with getUsers. Every id appears once,
// taking a non-empty name when either list has one. Named users come first
// in locale-aware alphabetical order; unnamed users follow in the order
// they were first seen.
func MergeUsers(ids []string, users []domain.User) []domain.User {
	index := make(map[string]int, len(ids)+len(users))
	merged := make([]domain.User, 0, len(ids)+len(users))

	add := func(u domain.User) {
		if u.UserID == "" {
			return
		}
		if i, ok := index[u.UserID]; ok {
			if merged[i].UserName == "" && u.UserName != "" {
				merged[i].UserName = u.UserName
			}
			return
		}
		index[u.UserID] = len(merged)
		merged = append(merged, u)
	}

	for _, id := range ids {
		add(domain.User{UserID: id})
	}
	for _, u := range users {
		add(u)
	}

	col := collate.New(language.Und)
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i].UserName, merged[j].UserName
		switch {
		case a == "" || b == "":
			return a != "" && b == ""
		default:
			return col.CompareString(a, b) < 0
		}
	})
	return merged
}
