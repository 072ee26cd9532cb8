package devserver

import (
	"net/http"

	"refactortrack/internal/analytics"
	"refactortrack/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetMetrics(ctx *gin.Context) {
	var q analytics.MetricsQuery
	normalize := func() {
		q.MetricTypes = nil
		for _, t := range splitCSV(ctx.QueryArray("metric_types")) {
			q.MetricTypes = append(q.MetricTypes, analytics.MetricType(t))
		}
	}
	if !s.bindQuery(ctx, "metrics query", &q, normalize) {
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Metrics retrieved successfully", s.Analytics.Metrics(q), nil)
}

func (s *Server) GetHiringPerformance(ctx *gin.Context) {
	var q analytics.PerformanceQuery
	if !s.bindQuery(ctx, "performance query", &q, nil) {
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Hiring performance retrieved successfully", s.Analytics.HiringPerformance(q), nil)
}

func (s *Server) GetSkillTrends(ctx *gin.Context) {
	var q analytics.SkillTrendsQuery
	normalize := func() { q.SkillCategories = splitCSV(q.SkillCategories) }
	if !s.bindQuery(ctx, "skill trends query", &q, normalize) {
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Skill trends retrieved successfully", s.Analytics.SkillTrends(q), nil)
}

func (s *Server) GetPerformanceReport(ctx *gin.Context) {
	var q analytics.ReportQuery
	if !s.bindQuery(ctx, "report query", &q, nil) {
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Performance report generated successfully", s.Analytics.PerformanceReport(q), nil)
}

// RefreshAnalytics acknowledges a recompute. Views are derived on every read,
// so there is nothing to rebuild.
func (s *Server) RefreshAnalytics(ctx *gin.Context) {
	var req analytics.RefreshRequest
	if ctx.Request.ContentLength != 0 && !s.bindJSON(ctx, "refresh request", &req) {
		return
	}
	scope := req.Scope
	if scope == "" {
		scope = "all"
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Analytics refreshed successfully", analytics.RefreshResult{
		Status:      "completed",
		Scope:       scope,
		RefreshedAt: s.opts.Now().UTC(),
	}, nil)
}
