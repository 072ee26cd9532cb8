package clients

import (
	"context"
	"net/http"
	"net/url"

	"refactortrack/internal/apiclient"
	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/constants"
	"refactortrack/internal/shared/pagination"
)

// API is the clients resource. Reads are cached under the clients_ prefix and every
// write drops that prefix.
type API struct {
	client *apiclient.Client
}

func NewAPI(client *apiclient.Client) *API {
	return &API{client: client}
}

func (a *API) GetClients(ctx context.Context, filters ClientFilters) (*pagination.Page[Client], error) {
	var out pagination.Page[Client]
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_CLIENTS_LIST,
		Path:      "/clients",
		Params:    filters,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) GetClient(ctx context.Context, id string) (*Client, error) {
	var out Client
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_CLIENTS_DETAIL,
		Path:      "/clients/" + url.PathEscape(id),
		Vars:      clientID{ID: id},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreateClient(ctx context.Context, req CreateClientRequest) (*Client, error) {
	var out Client
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodPost,
		Path:       "/clients",
		Body:       req,
		Invalidate: []string{constants.CACHE_PREFIX_CLIENTS},
		Namespace:  constants.CACHE_PREFIX_CLIENTS + "create",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateClient(ctx context.Context, id string, req UpdateClientRequest) (*Client, error) {
	if id == "" {
		return nil, apperrors.MissingID("client")
	}

	var out Client
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodPut,
		Path:       "/clients/" + url.PathEscape(id),
		Body:       req,
		Invalidate: []string{constants.CACHE_PREFIX_CLIENTS},
		Namespace:  constants.CACHE_PREFIX_CLIENTS + "update",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteClient(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.MissingID("client")
	}

	// requisitions embed their client, so they go too
	return a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodDelete,
		Path:       "/clients/" + url.PathEscape(id),
		Invalidate: []string{constants.CACHE_PREFIX_CLIENTS, constants.CACHE_PREFIX_REQUISITIONS},
		Namespace:  constants.CACHE_PREFIX_CLIENTS + "delete",
	}, nil)
}
