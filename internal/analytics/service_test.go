package analytics

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

var period = DateRange{
	StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
}

func sampleSkills() SkillsAnalytics {
	return SkillsAnalytics{
		ID: "skills-1",
		SkillDemand: []SkillDemand{
			{SkillName: "Go", DemandCount: 40, GrowthRate: 12.5},
			{SkillName: "Java", DemandCount: 55, GrowthRate: 2},
			{SkillName: "Rust", DemandCount: 10, GrowthRate: 30},
			{SkillName: "Kotlin", DemandCount: 12, GrowthRate: 12.5},
		},
		SkillGaps: []SkillGap{
			{SkillName: "Go", DemandSupplyRatio: 1.4, GapSeverity: 0.7},
			{SkillName: "Java", DemandSupplyRatio: 0.6, GapSeverity: 0.2},
			{SkillName: "Rust", DemandSupplyRatio: 0.8, GapSeverity: 0.4},
		},
	}
}

func newBackend(t *testing.T, skillsStatus int) *apiclienttest.Backend {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics/metrics", func(w http.ResponseWriter, r *http.Request) {
		m := RecruitmentMetrics{ID: "m-1", TotalRequisitions: 10, FilledRequisitions: 6, RequisitionFillRate: 60}
		apiclienttest.WriteEnvelope(w, http.StatusOK, pagination.Slice([]RecruitmentMetrics{m}, 1, 25))
	})
	mux.HandleFunc("GET /api/v1/analytics/hiring-performance", func(w http.ResponseWriter, r *http.Request) {
		apiclienttest.WriteEnvelope(w, http.StatusOK, HiringPerformance{
			AggregationLevel: AggregationLevel(r.URL.Query().Get("aggregation_level")),
			TimeToHire:       TrendSummary{Direction: "down"},
		})
	})
	mux.HandleFunc("GET /api/v1/analytics/skill-trends", func(w http.ResponseWriter, r *http.Request) {
		if skillsStatus != http.StatusOK {
			apiclienttest.WriteEnvelope(w, skillsStatus, nil)
			return
		}
		apiclienttest.WriteEnvelope(w, http.StatusOK, sampleSkills())
	})
	mux.HandleFunc("POST /api/v1/analytics/refresh", func(w http.ResponseWriter, r *http.Request) {
		apiclienttest.WriteEnvelope(w, http.StatusOK, RefreshResult{Status: "refreshed", Scope: "all"})
	})
	return apiclienttest.New(t, mux)
}

func TestDashboardFansOutAndCaches(t *testing.T) {
	b := newBackend(t, http.StatusOK)
	api := NewAPI(b.Client)
	ctx := context.Background()

	d, err := api.Dashboard(ctx, period)
	require.NoError(t, err)
	require.NotNil(t, d.Metrics)
	require.NotNil(t, d.Performance)
	require.NotNil(t, d.Skills)
	assert.Equal(t, AggregationWeekly, d.Performance.AggregationLevel)
	assert.Equal(t, []string{"Go"}, d.CriticalSkills())
	assert.Equal(t, 3, b.Calls(http.MethodGet))

	_, err = api.Dashboard(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Calls(http.MethodGet), "second dashboard is served from the cache")
}

func TestDashboardFailsWhenOneReadFails(t *testing.T) {
	b := newBackend(t, http.StatusInternalServerError)

	_, err := NewAPI(b.Client).Dashboard(context.Background(), period)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill trends")

	var httpErr *apperrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestInvertedDateRangeMakesNoCall(t *testing.T) {
	b := newBackend(t, http.StatusOK)

	_, err := NewAPI(b.Client).GetMetrics(context.Background(), MetricsQuery{
		DateRange: DateRange{StartDate: period.EndDate, EndDate: period.StartDate},
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Zero(t, b.Calls(""))
}

func TestMetricsQueryEncoding(t *testing.T) {
	b := newBackend(t, http.StatusOK)

	_, err := NewAPI(b.Client).GetMetrics(context.Background(), MetricsQuery{
		DateRange:   period,
		MetricTypes: []MetricType{MetricTimeToHire, MetricRequisitionFillRate},
	})
	require.NoError(t, err)

	q := b.Last().Query
	assert.Equal(t, "2025-01-01T00:00:00Z", q.Get("start_date"))
	assert.Equal(t, "2025-03-31T00:00:00Z", q.Get("end_date"))
	assert.Equal(t, "time_to_hire,requisition_fill_rate", q.Get("metric_types"))
}

func TestRefreshDropsAnalyticsReads(t *testing.T) {
	b := newBackend(t, http.StatusOK)
	api := NewAPI(b.Client)
	ctx := context.Background()

	_, err := api.GetSkillTrends(ctx, SkillTrendsQuery{DateRange: period})
	require.NoError(t, err)

	res, err := api.Refresh(ctx, RefreshRequest{Scope: "all"})
	require.NoError(t, err)
	assert.Equal(t, "refreshed", res.Status)

	keys, err := b.Store.Keys(ctx, "analytics_")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCriticalSkills(t *testing.T) {
	s := sampleSkills()
	assert.Equal(t, []string{"Go"}, s.CriticalSkills(DefaultCriticalThreshold), "ratio must exceed the threshold")
	assert.Equal(t, []string{"Go", "Java", "Rust"}, s.CriticalSkills(0.5))
	assert.Empty(t, s.CriticalSkills(2))
}

func TestTrendingSkills(t *testing.T) {
	s := sampleSkills()

	top := s.TrendingSkills(3)
	require.Len(t, top, 3)
	assert.Equal(t, "Rust", top[0].Skill)
	assert.Equal(t, "Go", top[1].Skill, "ties keep demand order")
	assert.Equal(t, "Kotlin", top[2].Skill)

	assert.Len(t, s.TrendingSkills(10), 4)
	assert.Empty(t, s.TrendingSkills(0))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{30, 28, 25, 21})
	assert.Equal(t, "down", s.Direction)
	assert.InDelta(t, 26, s.Mean, 0.001)
	assert.InDelta(t, 26.5, s.Median, 0.001)
	assert.InDelta(t, -30, s.ChangeRate, 0.001)

	assert.Equal(t, "flat", Summarize(nil).Direction)
}
