package analytics

import (
	"context"
	"fmt"
	"net/http"

	"refactortrack/internal/apiclient"
	"refactortrack/internal/shared/constants"
	"refactortrack/internal/shared/pagination"

	"golang.org/x/sync/errgroup"
)

// API reads the recruitment analytics. Every read is cached under analytics_; Refresh
// and requisition status changes drop them.
type API struct {
	client *apiclient.Client
}

func NewAPI(client *apiclient.Client) *API {
	return &API{client: client}
}

// GetMetrics returns the recruitment KPIs per period
func (a *API) GetMetrics(ctx context.Context, q MetricsQuery) (*pagination.Page[RecruitmentMetrics], error) {
	var out pagination.Page[RecruitmentMetrics]
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_ANALYTICS_METRICS,
		Path:      "/analytics/metrics",
		Params:    q,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHiringPerformance defaults to weekly aggregation
func (a *API) GetHiringPerformance(ctx context.Context, q PerformanceQuery) (*HiringPerformance, error) {
	if q.AggregationLevel == "" {
		q.AggregationLevel = AggregationWeekly
	}

	var out HiringPerformance
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_ANALYTICS_PERFORMANCE,
		Path:      "/analytics/hiring-performance",
		Params:    q,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) GetSkillTrends(ctx context.Context, q SkillTrendsQuery) (*SkillsAnalytics, error) {
	var out SkillsAnalytics
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_ANALYTICS_SKILLS,
		Path:      "/analytics/skill-trends",
		Params:    q,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPerformanceReport defaults to the comprehensive report
func (a *API) GetPerformanceReport(ctx context.Context, q ReportQuery) (*PerformanceReport, error) {
	if q.ReportType == "" {
		q.ReportType = ReportTypeComprehensive
	}

	var out PerformanceReport
	err := a.client.Read(ctx, apiclient.ReadRequest{
		Namespace: constants.CACHE_NS_ANALYTICS_REPORT,
		Path:      "/analytics/reports/performance",
		Params:    q,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh recomputes the backend aggregates and drops every cached analytics read
func (a *API) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResult, error) {
	var out RefreshResult
	err := a.client.Write(ctx, apiclient.WriteRequest{
		Method:     http.MethodPost,
		Path:       "/analytics/refresh",
		Body:       req,
		Invalidate: []string{constants.CACHE_PREFIX_ANALYTICS},
		Namespace:  constants.CACHE_PREFIX_ANALYTICS + "refresh",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard loads metrics, hiring performance and skill trends of one period
// concurrently. The first failure cancels the other reads.
func (a *API) Dashboard(ctx context.Context, period DateRange) (*Dashboard, error) {
	d := &Dashboard{Period: period}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := a.GetMetrics(gctx, MetricsQuery{DateRange: period})
		if err != nil {
			return fmt.Errorf("dashboard metrics: %w", err)
		}
		d.Metrics = m
		return nil
	})
	g.Go(func() error {
		p, err := a.GetHiringPerformance(gctx, PerformanceQuery{DateRange: period})
		if err != nil {
			return fmt.Errorf("dashboard hiring performance: %w", err)
		}
		d.Performance = p
		return nil
	})
	g.Go(func() error {
		s, err := a.GetSkillTrends(gctx, SkillTrendsQuery{DateRange: period})
		if err != nil {
			return fmt.Errorf("dashboard skill trends: %w", err)
		}
		d.Skills = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
