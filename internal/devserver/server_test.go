package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"refactortrack/internal/analytics"
	"refactortrack/internal/auth"
	"refactortrack/internal/candidates"
	"refactortrack/internal/clients"
	"refactortrack/internal/requisitions"
	"refactortrack/internal/shared/pagination"
	"refactortrack/internal/shared/utils/response"
	"refactortrack/internal/shared/validation"
	"refactortrack/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	t      *testing.T
	server *Server
	engine *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := New(Options{
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		MFACode:    "123456",
		BcryptCost: bcrypt.MinCost,
		Accounts:   DefaultAccounts(),
		SeedData:   true,
		Logger:     logger.Discard(),
	})
	require.NoError(t, err)

	engine := gin.New()
	srv.RegisterRoutes(engine.Group("/api/v1"))
	return &harness{t: t, server: srv, engine: engine}
}

func (h *harness) do(method, path, token string, body any) (int, response.Envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)

	env, err := response.Decode(w.Body.Bytes())
	require.NoError(h.t, err, w.Body.String())
	return w.Code, env
}

func (h *harness) login(email, password string) auth.AuthResponse {
	h.t.Helper()
	code, env := h.do(http.MethodPost, "/auth/login", "", auth.LoginRequest{Email: email, Password: password})
	require.Equal(h.t, http.StatusOK, code, env.Message)

	var out auth.LoginResponse
	require.NoError(h.t, json.Unmarshal(env.Data, &out))
	require.False(h.t, out.MFARequired)
	return out.Auth()
}

func decode[T any](t *testing.T, env response.Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestLoginIssuesTokens(t *testing.T) {
	h := newHarness(t)

	resp := h.login("Admin@RefactorTrack.dev", "admin-password")
	assert.Equal(t, auth.RoleAdmin, resp.User.Role)
	assert.NotNil(t, resp.User.LastLogin)
	assert.True(t, resp.Tokens.Valid(time.Now()))

	exp, err := auth.ExpiryFromJWT(resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, exp.Equal(resp.Tokens.AccessTokenExpires))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)

	wrongPassword, env1 := h.do(http.MethodPost, "/auth/login", "", auth.LoginRequest{Email: "admin@refactortrack.dev", Password: "not-the-password"})
	unknownUser, env2 := h.do(http.MethodPost, "/auth/login", "", auth.LoginRequest{Email: "nobody@refactortrack.dev", Password: "not-the-password"})
	malformed, env3 := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "x"})

	for _, code := range []int{wrongPassword, unknownUser, malformed} {
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	assert.Equal(t, env1.Message, env2.Message)
	assert.Equal(t, env1.Message, env3.Message)
}

func TestMFALogin(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(http.MethodPost, "/auth/login", "", auth.LoginRequest{Email: "mfa@refactortrack.dev", Password: "mfa-password"})
	require.Equal(t, http.StatusOK, code)
	challenge := decode[auth.LoginResponse](t, env)
	require.True(t, challenge.MFARequired)
	assert.Nil(t, challenge.Tokens)
	assert.Equal(t, []string{"totp"}, challenge.Methods)
	assert.WithinDuration(t, time.Now().Add(mfaTTL), challenge.ExpiresAt, 5*time.Second)

	code, _ = h.do(http.MethodPost, "/auth/mfa/verify", "", auth.MFAVerifyRequest{MFAToken: challenge.MFAToken, Code: "654321"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = h.do(http.MethodPost, "/auth/mfa/verify", "", auth.MFAVerifyRequest{MFAToken: challenge.MFAToken, Code: "123456"})
	require.Equal(t, http.StatusOK, code, env.Message)
	resp := decode[auth.AuthResponse](t, env)
	assert.True(t, resp.User.MFAEnabled)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	// the challenge is spent
	code, _ = h.do(http.MethodPost, "/auth/mfa/verify", "", auth.MFAVerifyRequest{MFAToken: challenge.MFAToken, Code: "123456"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRefreshRotatesAndSpendsToken(t *testing.T) {
	h := newHarness(t)
	resp := h.login("recruiter@refactortrack.dev", "recruiter-password")

	code, env := h.do(http.MethodPost, "/auth/refresh", "", auth.RefreshTokenRequest{RefreshToken: resp.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	rotated := decode[auth.TokenPair](t, env)
	assert.NotEqual(t, resp.Tokens.RefreshToken, rotated.RefreshToken)

	code, _ = h.do(http.MethodPost, "/auth/refresh", "", auth.RefreshTokenRequest{RefreshToken: resp.Tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	// an access token is not a refresh token
	code, _ = h.do(http.MethodPost, "/auth/refresh", "", auth.RefreshTokenRequest{RefreshToken: rotated.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogoutRevokesTokens(t *testing.T) {
	h := newHarness(t)
	resp := h.login("manager@refactortrack.dev", "manager-password")

	code, env := h.do(http.MethodGet, "/auth/me", resp.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "manager@refactortrack.dev", decode[auth.User](t, env).Email)

	code, _ = h.do(http.MethodPost, "/auth/logout", resp.Tokens.AccessToken, auth.LogoutRequest{RefreshToken: resp.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, code)

	code, _ = h.do(http.MethodGet, "/auth/me", resp.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = h.do(http.MethodPost, "/auth/refresh", "", auth.RefreshTokenRequest{RefreshToken: resp.Tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t)

	known, env1 := h.do(http.MethodPost, "/auth/password-reset", "", auth.PasswordResetRequest{Email: "analyst@refactortrack.dev"})
	unknown, env2 := h.do(http.MethodPost, "/auth/password-reset", "", auth.PasswordResetRequest{Email: "ghost@refactortrack.dev"})
	assert.Equal(t, http.StatusOK, known)
	assert.Equal(t, http.StatusOK, unknown)
	assert.Equal(t, env1.Message, env2.Message)

	code, _ := h.do(http.MethodPost, "/auth/password-reset/confirm", "", auth.PasswordResetConfirmRequest{Token: "bogus", NewPassword: "brand-new-password"})
	assert.Equal(t, http.StatusBadRequest, code)

	token, ok := h.server.Store.IssueResetToken("analyst@refactortrack.dev")
	require.True(t, ok)
	code, _ = h.do(http.MethodPost, "/auth/password-reset/confirm", "", auth.PasswordResetConfirmRequest{Token: token, NewPassword: "brand-new-password"})
	require.Equal(t, http.StatusOK, code)

	h.login("analyst@refactortrack.dev", "brand-new-password")
	code, _ = h.do(http.MethodPost, "/auth/login", "", auth.LoginRequest{Email: "analyst@refactortrack.dev", Password: "analyst-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	analyst := h.login("analyst@refactortrack.dev", "analyst-password").Tokens.AccessToken
	recruiter := h.login("recruiter@refactortrack.dev", "recruiter-password").Tokens.AccessToken
	admin := h.login("admin@refactortrack.dev", "admin-password").Tokens.AccessToken

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/clients", "", nil, http.StatusUnauthorized},
		{"analyst reads", http.MethodGet, "/clients", analyst, nil, http.StatusOK},
		{"analyst cannot write", http.MethodPost, "/clients", analyst, clients.CreateClientRequest{CompanyName: "Acme", Industry: "x", ContactName: "y", ContactEmail: "a@b.co"}, http.StatusForbidden},
		{"recruiter cannot delete", http.MethodDelete, "/candidates/" + seedID("candidate", 0), recruiter, nil, http.StatusForbidden},
		{"recruiter reads analytics", http.MethodGet, "/analytics/hiring-performance?start_date=2026-01-01T00:00:00Z&end_date=2026-02-01T00:00:00Z", recruiter, nil, http.StatusOK},
		{"recruiter cannot refresh analytics", http.MethodPost, "/analytics/refresh", recruiter, analytics.RefreshRequest{}, http.StatusForbidden},
		{"admin refreshes analytics", http.MethodPost, "/analytics/refresh", admin, analytics.RefreshRequest{Scope: "skills"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := h.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, code, env.Message)
		})
	}
}

func TestClientLifecycle(t *testing.T) {
	h := newHarness(t)
	token := h.login("admin@refactortrack.dev", "admin-password").Tokens.AccessToken

	create := clients.CreateClientRequest{CompanyName: "Acme Corp", Industry: "manufacturing", ContactName: "Wile", ContactEmail: "wile@acme.example.com"}
	code, env := h.do(http.MethodPost, "/clients", token, create)
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[clients.Client](t, env)
	assert.Equal(t, clients.ClientStatusProspect, created.Status)

	code, _ = h.do(http.MethodPost, "/clients", token, create)
	assert.Equal(t, http.StatusConflict, code)

	status := clients.ClientStatusActive
	code, env = h.do(http.MethodPut, "/clients/"+created.ID, token, clients.UpdateClientRequest{Status: &status})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, clients.ClientStatusActive, decode[clients.Client](t, env).Status)

	code, env = h.do(http.MethodGet, "/clients?search=acme", token, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[pagination.Page[clients.Client]](t, env)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)

	code, _ = h.do(http.MethodPost, "/clients", token, clients.CreateClientRequest{CompanyName: "A"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodDelete, "/clients/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodGet, "/clients/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteClientWithActiveRequisitionsConflicts(t *testing.T) {
	h := newHarness(t)
	token := h.login("admin@refactortrack.dev", "admin-password").Tokens.AccessToken

	code, _ := h.do(http.MethodDelete, "/clients/"+seedID("client", 0), token, nil)
	assert.Equal(t, http.StatusConflict, code)

	// only a closed requisition hangs off the inactive client
	code, _ = h.do(http.MethodDelete, "/clients/"+seedID("client", 4), token, nil)
	assert.Equal(t, http.StatusOK, code)
	_, err := h.server.Store.GetRequisition(seedID("requisition", 8))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCandidateSkillFilter(t *testing.T) {
	h := newHarness(t)
	token := h.login("recruiter@refactortrack.dev", "recruiter-password").Tokens.AccessToken

	code, env := h.do(http.MethodGet, "/candidates?skills=kubernetes,AWS", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	page := decode[pagination.Page[candidates.Candidate]](t, env)

	require.Len(t, page.Items, 2)
	for _, c := range page.Items {
		assert.True(t, c.HasSkills("Kubernetes", "AWS"), c.FullName())
	}

	code, env = h.do(http.MethodGet, "/candidates?limit=2&page=2", token, nil)
	require.Equal(t, http.StatusOK, code)
	page = decode[pagination.Page[candidates.Candidate]](t, env)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, len(sampleCandidates), page.Total)
	assert.Equal(t, 4, page.TotalPages)
}

func TestCloseRequisition(t *testing.T) {
	h := newHarness(t)
	token := h.login("recruiter@refactortrack.dev", "recruiter-password").Tokens.AccessToken
	id := seedID("requisition", 0)

	code, env := h.do(http.MethodPost, "/requisitions/"+id+"/close", token, requisitions.CloseRequisitionRequest{Reason: "filled"})
	require.Equal(t, http.StatusOK, code, env.Message)
	closed := decode[requisitions.Requisition](t, env)
	assert.Equal(t, requisitions.RequisitionStatusFilled, closed.Status)
	assert.Equal(t, "filled", closed.CloseReason)

	code, _ = h.do(http.MethodPost, "/requisitions/"+id+"/close", token, requisitions.CloseRequisitionRequest{Reason: "duplicate"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(http.MethodPost, "/requisitions/"+seedID("requisition", 1)+"/close", token, requisitions.CloseRequisitionRequest{Reason: "bored"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAnalyticsSatisfyClientSchemas(t *testing.T) {
	h := newHarness(t)
	token := h.login("analyst@refactortrack.dev", "analyst-password").Tokens.AccessToken
	v := validation.New()

	now := time.Now().UTC()
	period := "start_date=" + now.AddDate(0, 0, -90).Format(time.RFC3339) +
		"&end_date=" + now.Format(time.RFC3339)

	code, env := h.do(http.MethodGet, "/analytics/metrics?"+period+"&metric_types=time_to_hire,requisition_fill_rate", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	metrics := decode[pagination.Page[analytics.RecruitmentMetrics]](t, env)
	require.NoError(t, validation.Value(v, metrics))
	assert.NotEmpty(t, metrics.Items)
	for _, m := range metrics.Items {
		assert.Zero(t, m.ClientSatisfactionRate)
		assert.Nil(t, m.SkillBasedMetrics)
	}

	code, env = h.do(http.MethodGet, "/analytics/hiring-performance?"+period+"&aggregation_level=monthly", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	perf := decode[analytics.HiringPerformance](t, env)
	require.NoError(t, validation.Value(v, perf))
	assert.Len(t, perf.Metrics, 3)

	code, env = h.do(http.MethodGet, "/analytics/skill-trends?"+period, token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	skills := decode[analytics.SkillsAnalytics](t, env)
	require.NoError(t, validation.Value(v, skills))
	assert.Contains(t, skills.CriticalSkills(analytics.DefaultCriticalThreshold), "Kubernetes")

	code, env = h.do(http.MethodGet, "/analytics/reports/performance?"+period+"&report_type=summary", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	report := decode[analytics.PerformanceReport](t, env)
	require.NoError(t, validation.Value(v, report))
	assert.Nil(t, report.HiringMetrics)
	assert.Nil(t, report.SkillAnalysis)
	assert.Positive(t, report.Summary.TotalRequisitions)
}

func TestAnalyticsRejectsInvertedRange(t *testing.T) {
	h := newHarness(t)
	token := h.login("analyst@refactortrack.dev", "analyst-password").Tokens.AccessToken

	code, env := h.do(http.MethodGet, "/analytics/skill-trends?start_date=2026-02-01T00:00:00Z&end_date=2026-01-01T00:00:00Z", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Errors), "end_date")
}
