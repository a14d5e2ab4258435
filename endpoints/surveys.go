package endpoints

import (
	"context"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
)

const (
	SurveysEndpoint = "surveys"

	OpGetAllSurveys = "getAllSurveys"
)

var SurveysTag = cache.TypeTag(TagTypeSurveys)

// Surveys is read-only.
type Surveys struct {
	ep *cache.Endpoint
}

func NewSurveys(engine *cache.Engine, client *api.Client) (*Surveys, error) {
	ep, err := engine.DefineEndpoint(cache.EndpointConfig{
		Name: SurveysEndpoint,
		Operations: []cache.Operation{
			{
				Name:         OpGetAllSurveys,
				Kind:         cache.KindQuery,
				Fetch:        getJSON[[]domain.SurveyEntry](client, staticPath("/api/surveys")),
				ProvidesTags: cache.StaticTags(SurveysTag),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Surveys{ep: ep}, nil
}

func (s *Surveys) Endpoint() *cache.Endpoint { return s.ep }

func (s *Surveys) GetAllSurveys(ctx context.Context, opts cache.QueryOptions) (*cache.Subscription, error) {
	return s.ep.Query(ctx, OpGetAllSurveys, nil, opts)
}

// SurveysByUser groups entries by user id, keeping their order.
func SurveysByUser(entries []domain.SurveyEntry) map[string][]domain.SurveyEntry {
	out := make(map[string][]domain.SurveyEntry)
	for _, e := range entries {
		out[e.UserID] = append(out[e.UserID], e)
	}
	return out
}
