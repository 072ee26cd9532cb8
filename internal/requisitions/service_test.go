package requisitions

import (
	"context"
	"net/http"
	"testing"
	"time"

	"refactortrack/internal/apiclient/apiclienttest"
	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backendEngineer() Requisition {
	return Requisition{
		ID:             "r-1",
		Title:          "Backend Engineer",
		ClientID:       "c-1",
		RequiredSkills: []string{"Go", "PostgreSQL"},
		Status:         RequisitionStatusOpen,
		Priority:       PriorityHigh,
		Openings:       2,
		RateMin:        80,
		RateMax:        120,
	}
}

func newBackend(t *testing.T) *apiclienttest.Backend {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/requisitions", func(w http.ResponseWriter, r *http.Request) {
		apiclienttest.WriteEnvelope(w, http.StatusOK, pagination.Slice([]Requisition{backendEngineer()}, 1, 25))
	})
	mux.HandleFunc("POST /api/v1/requisitions/{id}/close", func(w http.ResponseWriter, r *http.Request) {
		req := backendEngineer()
		req.Status = RequisitionStatusClosed
		req.CloseReason = "filled"
		apiclienttest.WriteEnvelope(w, http.StatusOK, req)
	})
	mux.HandleFunc("POST /api/v1/requisitions", func(w http.ResponseWriter, r *http.Request) {
		apiclienttest.WriteEnvelope(w, http.StatusCreated, backendEngineer())
	})
	return apiclienttest.New(t, mux)
}

func TestCloseInvalidatesRequisitionsAndAnalytics(t *testing.T) {
	b := newBackend(t)
	api := NewAPI(b.Client)
	ctx := context.Background()

	_, err := api.GetRequisitions(ctx, RequisitionFilters{ClientID: "c-1"})
	require.NoError(t, err)
	require.NoError(t, b.Cache.Set(ctx, "analytics_metrics:{}", map[string]int{"filled": 1}))

	closed, err := api.Close(ctx, "r-1", CloseRequisitionRequest{Reason: "filled"})
	require.NoError(t, err)
	assert.Equal(t, RequisitionStatusClosed, closed.Status)
	assert.Equal(t, "/api/v1/requisitions/r-1/close", b.Last().Path)
	assert.JSONEq(t, `{"reason":"filled"}`, string(b.Last().Body))

	assert.False(t, b.Cache.Exists(ctx, "analytics_metrics:{}"))
	_, err = api.GetRequisitions(ctx, RequisitionFilters{ClientID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Calls(http.MethodGet))
}

func TestCloseIsNotRetried(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/requisitions/{id}/close", func(w http.ResponseWriter, r *http.Request) {
		apiclienttest.WriteEnvelope(w, http.StatusServiceUnavailable, nil)
	})
	b := apiclienttest.New(t, mux)

	_, err := NewAPI(b.Client).Close(context.Background(), "r-1", CloseRequisitionRequest{Reason: "filled"})
	require.ErrorIs(t, err, apperrors.ErrTransient)
	assert.Equal(t, 1, b.Calls(http.MethodPost))
}

func TestCreateRejectsInvertedRateRange(t *testing.T) {
	b := newBackend(t)

	_, err := NewAPI(b.Client).CreateRequisition(context.Background(), CreateRequisitionRequest{
		Title:          "Data Engineer",
		ClientID:       "c-1",
		RequiredSkills: []string{"Spark"},
		Priority:       PriorityMedium,
		Openings:       1,
		RateMin:        100,
		RateMax:        50,
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "rate_max")
	assert.Zero(t, b.Calls(""))
}

func TestCloseRequiresKnownReason(t *testing.T) {
	b := newBackend(t)

	_, err := NewAPI(b.Client).Close(context.Background(), "r-1", CloseRequisitionRequest{Reason: "bored"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Zero(t, b.Calls(""))
}

func TestOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	r := backendEngineer()
	assert.False(t, r.Overdue(now))

	r.Deadline = &past
	assert.True(t, r.Overdue(now))

	r.Status = RequisitionStatusFilled
	assert.False(t, r.Overdue(now))
}
