package devserver

import (
	"testing"
	"time"

	"refactortrack/internal/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketsCoverRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := analytics.DateRange{StartDate: start, EndDate: start.AddDate(0, 0, 10)}

	got := buckets(r, 7*24*time.Hour)
	require.Len(t, got, 2)
	assert.Equal(t, start, got[0].start)
	assert.Equal(t, r.EndDate, got[1].end)
	assert.False(t, got[0].last)
	assert.True(t, got[1].last)
	assert.True(t, got[1].contains(r.EndDate))
	assert.False(t, got[0].contains(got[0].end))
}

func TestBucketsOfEmptyRange(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := buckets(analytics.DateRange{StartDate: at, EndDate: at}, 24*time.Hour)
	require.Len(t, got, 1)
	assert.True(t, got[0].contains(at))
}

func TestBucketsAreCapped(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	got := buckets(analytics.DateRange{StartDate: start, EndDate: start.AddDate(5, 0, 0)}, 24*time.Hour)
	assert.Len(t, got, maxBuckets)
	assert.True(t, got[len(got)-1].last)
}

func TestGeneratedIDsAreStable(t *testing.T) {
	h := newHarness(t)
	r := analytics.LastDays(time.Now(), 30)

	first := h.server.Analytics.SkillTrends(analytics.SkillTrendsQuery{DateRange: r})
	second := h.server.Analytics.SkillTrends(analytics.SkillTrendsQuery{DateRange: r})
	assert.Equal(t, first.ID, second.ID)

	filtered := h.server.Analytics.SkillTrends(analytics.SkillTrendsQuery{DateRange: r, SkillCategories: []string{"python"}})
	assert.NotEqual(t, first.ID, filtered.ID)
	for _, d := range filtered.SkillDemand {
		assert.Contains(t, d.SkillName, "Python")
	}
}

func TestSummaryReportOmitsDetailSections(t *testing.T) {
	h := newHarness(t)
	r := analytics.LastDays(time.Now(), 90)

	summary := h.server.Analytics.PerformanceReport(analytics.ReportQuery{DateRange: r, ReportType: analytics.ReportTypeSummary})
	assert.Equal(t, analytics.ReportTypeSummary, summary.ReportType)
	assert.Nil(t, summary.HiringMetrics)
	assert.Nil(t, summary.SkillAnalysis)
	assert.NotNil(t, summary.Summary.CriticalSkills)

	full := h.server.Analytics.PerformanceReport(analytics.ReportQuery{DateRange: r})
	assert.Equal(t, analytics.ReportTypeComprehensive, full.ReportType)
	assert.NotNil(t, full.HiringMetrics)
	assert.NotNil(t, full.SkillAnalysis)
	assert.Equal(t, summary.Summary.TotalRequisitions, full.Summary.TotalRequisitions)
}
