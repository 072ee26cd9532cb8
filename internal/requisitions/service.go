package requisitions

import (
	"context"
	"net/http"
	"net/url"

	"refactortrack/internal/apiclient"
	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/constants"
	"refactortrack/internal/shared/pagination"
)

// API is the requisitions resource, cached under the requisitions_ prefix.
// Fill rates feed the analytics reads, so status-changing writes drop those too.
type API struct {
	client *apiclient.Client
}

func NewAPI(client *apiclient.Client) *API {
	return &API{client: client}
}

func (a *API) GetRequisitions(ctx context.Context, filters RequisitionFilters) (*pagination.Page[Requisition], error) {
	var out pagination.Page[Requisition]
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_REQUISITIONS_LIST,
		Path:      "/requisitions",
		Params:    filters,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) GetRequisition(ctx context.Context, id string) (*Requisition, error) {
	var out Requisition
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_REQUISITIONS_DETAIL,
		Path:      "/requisitions/" + url.PathEscape(id),
		Vars:      requisitionID{ID: id},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreateRequisition(ctx context.Context, req CreateRequisitionRequest) (*Requisition, error) {
	var out Requisition
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodPost,
		Path:       "/requisitions",
		Body:       req,
		Invalidate: []string{constants.CACHE_PREFIX_REQUISITIONS, constants.CACHE_PREFIX_ANALYTICS},
		Namespace:  constants.CACHE_PREFIX_REQUISITIONS + "create",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateRequisition(ctx context.Context, id string, req UpdateRequisitionRequest) (*Requisition, error) {
	if id == "" {
		return nil, apperrors.MissingID("requisition")
	}

	invalidate := []string{constants.CACHE_PREFIX_REQUISITIONS}
	if req.Status != nil {
		invalidate = append(invalidate, constants.CACHE_PREFIX_ANALYTICS)
	}

	var out Requisition
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodPut,
		Path:       "/requisitions/" + url.PathEscape(id),
		Body:       req,
		Invalidate: invalidate,
		Namespace:  constants.CACHE_PREFIX_REQUISITIONS + "update",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Close ends a requisition with a reason. Closing twice is rejected by the backend.
func (a *API) Close(ctx context.Context, id string, req CloseRequisitionRequest) (*Requisition, error) {
	if id == "" {
		return nil, apperrors.MissingID("requisition")
	}

	var out Requisition
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodPost,
		Path:       "/requisitions/" + url.PathEscape(id) + "/close",
		Body:       req,
		Invalidate: []string{constants.CACHE_PREFIX_REQUISITIONS, constants.CACHE_PREFIX_ANALYTICS},
		Namespace:  constants.CACHE_PREFIX_REQUISITIONS + "close",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteRequisition(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.MissingID("requisition")
	}
	return a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodDelete,
		Path:       "/requisitions/" + url.PathEscape(id),
		Invalidate: []string{constants.CACHE_PREFIX_REQUISITIONS, constants.CACHE_PREFIX_ANALYTICS},
		Namespace:  constants.CACHE_PREFIX_REQUISITIONS + "delete",
	}, nil)
}
