package candidates

import (
	"context"
	"net/http"
	"net/url"

	"refactortrack/internal/apiclient"
	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/constants"
	"refactortrack/internal/shared/pagination"
)

// API is the candidates resource, cached under the candidates_ prefix
type API struct {
	client *apiclient.Client
}

func NewAPI(client *apiclient.Client) *API {
	return &API{client: client}
}

// GetCandidates lists and searches candidates
func (a *API) GetCandidates(ctx context.Context, filters CandidateFilters) (*pagination.Page[Candidate], error) {
	var out pagination.Page[Candidate]
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_CANDIDATES_LIST,
		Path:      "/candidates",
		Params:    filters,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	var out Candidate
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_CANDIDATES_DETAIL,
		Path:      "/candidates/" + url.PathEscape(id),
		Vars:      candidateID{ID: id},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreateCandidate(ctx context.Context, req CreateCandidateRequest) (*Candidate, error) {
	var out Candidate
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodPost,
		Path:       "/candidates",
		Body:       req,
		Invalidate: []string{constants.CACHE_PREFIX_CANDIDATES},
		Namespace:  constants.CACHE_PREFIX_CANDIDATES + "create",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateCandidate(ctx context.Context, id string, req UpdateCandidateRequest) (*Candidate, error) {
	if id == "" {
		return nil, apperrors.MissingID("candidate")
	}

	var out Candidate
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodPut,
		Path:       "/candidates/" + url.PathEscape(id),
		Body:       req,
		Invalidate: []string{constants.CACHE_PREFIX_CANDIDATES},
		Namespace:  constants.CACHE_PREFIX_CANDIDATES + "update",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteCandidate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.MissingID("candidate")
	}
	return a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodDelete,
		Path:       "/candidates/" + url.PathEscape(id),
		Invalidate: []string{constants.CACHE_PREFIX_CANDIDATES},
		Namespace:  constants.CACHE_PREFIX_CANDIDATES + "delete",
	}, nil)
}
