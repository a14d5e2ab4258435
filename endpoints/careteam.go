package endpoints

import (
	"context"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
)

const (
	CareTeamEndpoint = "careteam"

	OpSignupCareTeam     = "signupCareTeam"
	OpLoginCareTeam      = "loginCareTeam"
	OpGetCareTeamMembers = "getCareTeamMembers"
)

var CareTeamTag = cache.TypeTag(TagTypeCareTeam)

// CareTeam exposes staff signup, login and the member list.
// The client must be authenticated; login and signup send an empty token.
type CareTeam struct {
	ep *cache.Endpoint
}

func NewCareTeam(engine *cache.Engine, client *api.Client) (*CareTeam, error) {
	ep, err := engine.DefineEndpoint(cache.EndpointConfig{
		Name: CareTeamEndpoint,
		Operations: []cache.Operation{
			{
				Name: OpSignupCareTeam,
				Kind: cache.KindMutation,
				Fetch: func(ctx context.Context, arg any) (any, error) {
					req, err := argAs[domain.SignupRequest](arg, OpSignupCareTeam)
					if err != nil {
						return nil, err
					}
					if err := validatePayload(req, "signup request"); err != nil {
						return nil, err
					}
					var member domain.CareTeamMember
					if err := client.Post(ctx, "/api/careteam/signup", req, &member); err != nil {
						return nil, err
					}
					return member, nil
				},
				InvalidatesTags: cache.StaticTags(CareTeamTag),
			},
			{
				Name: OpLoginCareTeam,
				Kind: cache.KindMutation,
				Fetch: func(ctx context.Context, arg any) (any, error) {
					req, err := argAs[domain.LoginRequest](arg, OpLoginCareTeam)
					if err != nil {
						return nil, err
					}
					if err := validatePayload(req, "login request"); err != nil {
						return nil, err
					}
					var member domain.CareTeamMember
					if err := client.Post(ctx, "/api/careteam/login", req, &member); err != nil {
						return nil, err
					}
					return member, nil
				},
			},
			{
				Name:         OpGetCareTeamMembers,
				Kind:         cache.KindQuery,
				Fetch:        getJSON[[]domain.CareTeamMember](client, staticPath("/api/careteam")),
				ProvidesTags: cache.StaticTags(CareTeamTag),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &CareTeam{ep: ep}, nil
}

func (c *CareTeam) Endpoint() *cache.Endpoint { return c.ep }

// Signup registers a new member. A duplicate surfaces as api.IsConflict.
func (c *CareTeam) Signup(ctx context.Context, req domain.SignupRequest) (domain.CareTeamMember, error) {
	return cache.MutateAs[domain.CareTeamMember](ctx, c.ep, OpSignupCareTeam, req)
}

// Login exchanges credentials for an identity. Bad credentials surface as
// api.IsUnauthorized. Login does not touch auth state; see di.Container.SignIn.
func (c *CareTeam) Login(ctx context.Context, req domain.LoginRequest) (domain.CareTeamMember, error) {
	return cache.MutateAs[domain.CareTeamMember](ctx, c.ep, OpLoginCareTeam, req)
}

func (c *CareTeam) GetCareTeamMembers(ctx context.Context, opts cache.QueryOptions) (*cache.Subscription, error) {
	return c.ep.Query(ctx, OpGetCareTeamMembers, nil, opts)
}
