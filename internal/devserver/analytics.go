package devserver

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"refactortrack/internal/analytics"
	"refactortrack/internal/candidates"
	"refactortrack/internal/requisitions"
	"refactortrack/internal/shared/pagination"

	"github.com/google/uuid"
)

const (
	maxBuckets      = 366
	trendConfidence = 0.8
	slowHireDays    = 30
	lowFillRate     = 50
)

var analyticsNamespace = uuid.MustParse("8d7c0f5e-2a41-4f3e-b1d6-6b9e4c2f0a77")

type bucket struct {
	start, end time.Time
	last       bool
}

func (b bucket) contains(t time.Time) bool {
	if t.Before(b.start) {
		return false
	}
	return t.Before(b.end) || (b.last && !t.After(b.end))
}

// buckets splits the range into steps, the last one closed on the right
func buckets(r analytics.DateRange, step time.Duration) []bucket {
	var out []bucket
	for start := r.StartDate; len(out) < maxBuckets; start = start.Add(step) {
		end := start.Add(step)
		if !end.Before(r.EndDate) {
			out = append(out, bucket{start: start, end: r.EndDate, last: true})
			break
		}
		out = append(out, bucket{start: start, end: end})
	}
	if n := len(out); n > 0 && !out[n-1].last {
		out[n-1].last = true
	}
	return out
}

func stableID(parts ...any) string {
	return uuid.NewSHA1(analyticsNamespace, []byte(fmt.Sprint(parts...))).String()
}

func terminal(r requisitions.Requisition) bool {
	return r.Status == requisitions.RequisitionStatusFilled || r.Status == requisitions.RequisitionStatusClosed
}

// activeDuring reports requisitions that were open at some point of the bucket
func activeDuring(r requisitions.Requisition, b bucket) bool {
	if r.CreatedAt.After(b.end) || (!b.last && !r.CreatedAt.Before(b.end)) {
		return false
	}
	return !terminal(r) || !r.UpdatedAt.Before(b.start)
}

func filledDuring(r requisitions.Requisition, b bucket) bool {
	return r.Status == requisitions.RequisitionStatusFilled && b.contains(r.UpdatedAt)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Analytics derives the analytics views from the store
type Analytics struct {
	store *Store
	now   func() time.Time
}

func (a *Analytics) metricsFor(reqs []requisitions.Requisition, b bucket, types map[analytics.MetricType]bool) analytics.RecruitmentMetrics {
	var total, filled int
	var hireDays float64
	skills := map[string]float64{}
	for _, r := range reqs {
		if !activeDuring(r, b) {
			continue
		}
		total++
		for _, skill := range r.RequiredSkills {
			skills[skill]++
		}
		if filledDuring(r, b) {
			filled++
			hireDays += r.UpdatedAt.Sub(r.CreatedAt).Hours() / 24
		}
	}

	m := analytics.RecruitmentMetrics{
		ID:                 stableID("metrics", b.start.Unix(), b.end.Unix()),
		TotalRequisitions:  total,
		FilledRequisitions: filled,
		PeriodStart:        b.start,
		PeriodEnd:          b.end,
		CreatedAt:          a.now().UTC(),
	}
	want := func(t analytics.MetricType) bool { return len(types) == 0 || types[t] }
	if want(analytics.MetricTimeToHire) && filled > 0 {
		m.AverageTimeToHire = round2(hireDays / float64(filled))
	}
	if total > 0 {
		fillRate := float64(filled) / float64(total) * 100
		if want(analytics.MetricRequisitionFillRate) {
			m.RequisitionFillRate = round2(fillRate)
		}
		if want(analytics.MetricSatisfaction) {
			m.ClientSatisfactionRate = round2(75 + fillRate/4)
		}
	}
	if want(analytics.MetricSkillDemand) {
		m.SkillBasedMetrics = skills
	}
	return m
}

func (a *Analytics) series(r analytics.DateRange, step time.Duration, types []analytics.MetricType) []analytics.RecruitmentMetrics {
	reqs, _ := a.store.snapshot()
	wanted := make(map[analytics.MetricType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	var out []analytics.RecruitmentMetrics
	for _, b := range buckets(r, step) {
		out = append(out, a.metricsFor(reqs, b, wanted))
	}
	return out
}

// Metrics pages the weekly KPIs of the range
func (a *Analytics) Metrics(q analytics.MetricsQuery) pagination.Page[analytics.RecruitmentMetrics] {
	all := a.series(q.DateRange, analytics.AggregationWeekly.Step(), q.MetricTypes)
	return pagination.Slice(all, q.Page, q.Limit)
}

// HiringPerformance aggregates the KPIs at the requested level with their trends
func (a *Analytics) HiringPerformance(q analytics.PerformanceQuery) analytics.HiringPerformance {
	level := q.AggregationLevel
	if level == "" {
		level = analytics.AggregationWeekly
	}
	metrics := a.series(q.DateRange, level.Step(), nil)

	var ttp, fill, satisfaction, volume []float64
	for _, m := range metrics {
		if m.FilledRequisitions > 0 {
			ttp = append(ttp, m.AverageTimeToHire)
		}
		fill = append(fill, m.RequisitionFillRate)
		satisfaction = append(satisfaction, m.ClientSatisfactionRate)
		volume = append(volume, float64(m.TotalRequisitions))
	}

	perf := analytics.HiringPerformance{
		AggregationLevel: level,
		Metrics:          metrics,
		TimeToHire:       analytics.Summarize(ttp),
		Trends: map[string]analytics.TrendSummary{
			"requisition_fill_rate": analytics.Summarize(fill),
			"satisfaction":          analytics.Summarize(satisfaction),
			"total_requisitions":    analytics.Summarize(volume),
		},
	}
	perf.Recommendations = a.recommend(perf, nil)
	return perf
}

type skillTally struct {
	demand      int
	firstHalf   int
	secondHalf  int
	rateSum     float64
	regions     map[string]float64
	trend       []int
	supply      int
	experience  int
	geographies map[string]int
}

// SkillTrends compares requisition demand with candidate supply per skill
func (a *Analytics) SkillTrends(q analytics.SkillTrendsQuery) analytics.SkillsAnalytics {
	reqs, cands := a.store.snapshot()
	r := q.DateRange
	mid := r.StartDate.Add(r.Duration() / 2)
	weeks := buckets(r, analytics.AggregationWeekly.Step())
	whole := bucket{start: r.StartDate, end: r.EndDate, last: true}

	match := func(skill string) bool {
		if len(q.SkillCategories) == 0 {
			return true
		}
		for _, c := range q.SkillCategories {
			if strings.Contains(strings.ToLower(skill), strings.ToLower(c)) {
				return true
			}
		}
		return false
	}

	tallies := map[string]*skillTally{}
	tally := func(skill string) *skillTally {
		t, ok := tallies[skill]
		if !ok {
			t = &skillTally{regions: map[string]float64{}, trend: make([]int, len(weeks)), geographies: map[string]int{}}
			tallies[skill] = t
		}
		return t
	}

	for _, req := range reqs {
		if !activeDuring(req, whole) {
			continue
		}
		for _, skill := range req.RequiredSkills {
			if !match(skill) {
				continue
			}
			t := tally(skill)
			t.demand++
			t.rateSum += req.RateMax
			if req.CreatedAt.Before(mid) {
				t.firstHalf++
			} else {
				t.secondHalf++
			}
			region := req.Location
			if region == "" {
				region = "unspecified"
			}
			t.regions[region]++
			for i, w := range weeks {
				if activeDuring(req, w) {
					t.trend[i]++
				}
			}
		}
	}

	available := 0
	for _, c := range cands {
		if c.Status != candidates.CandidateStatusActive && c.Status != candidates.CandidateStatusInterviewing {
			continue
		}
		available++
		for _, skill := range c.Skills {
			if !match(skill) {
				continue
			}
			t := tally(skill)
			t.supply++
			t.experience += c.ExperienceYears
			t.geographies[c.Location]++
		}
	}

	names := make([]string, 0, len(tallies))
	for name := range tallies {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := tallies[names[i]], tallies[names[j]]
		if ti.demand != tj.demand {
			return ti.demand > tj.demand
		}
		return names[i] < names[j]
	})

	out := analytics.SkillsAnalytics{
		ID:                 stableID("skills", r.StartDate.Unix(), r.EndDate.Unix(), strings.Join(q.SkillCategories, ",")),
		SkillDemand:        []analytics.SkillDemand{},
		SkillAvailability:  []analytics.SkillAvailability{},
		SkillGaps:          []analytics.SkillGap{},
		MarketTrends:       map[string]float64{},
		HistoricalAnalysis: map[string][]analytics.TrendPoint{},
		CreatedAt:          a.now().UTC(),
	}
	for _, name := range names {
		t := tallies[name]
		growth := round2(float64(t.secondHalf-t.firstHalf) / math.Max(float64(t.firstHalf), 1) * 100)

		points := make([]analytics.TrendPoint, len(weeks))
		for i, w := range weeks {
			points[i] = analytics.TrendPoint{Date: w.start, Value: float64(t.trend[i]), Confidence: trendConfidence}
		}

		if t.demand > 0 {
			out.SkillDemand = append(out.SkillDemand, analytics.SkillDemand{
				ID:              stableID("skill", name),
				SkillName:       name,
				DemandCount:     t.demand,
				GrowthRate:      growth,
				MarketRate:      round2(t.rateSum / float64(t.demand)),
				HistoricalTrend: points,
				RegionalDemand:  t.regions,
			})
			out.MarketTrends[name] = growth
			out.HistoricalAnalysis[name] = points
		}

		if t.supply > 0 {
			share := 0.0
			if available > 0 {
				share = round2(float64(t.supply) / float64(available) * 100)
			}
			out.SkillAvailability = append(out.SkillAvailability, analytics.SkillAvailability{
				SkillName:                name,
				AvailableCandidates:      t.supply,
				AverageExperience:        round2(float64(t.experience) / float64(t.supply)),
				MarketAvailability:       share,
				GeographicalDistribution: t.geographies,
			})
		}

		if t.demand > 0 {
			ratio := round2(float64(t.demand) / math.Max(float64(t.supply), 1))
			if t.supply == 0 {
				// nobody to place at all
				ratio = round2(float64(t.demand) + 1)
			}
			out.SkillGaps = append(out.SkillGaps, analytics.SkillGap{
				SkillName:          name,
				DemandSupplyRatio:  ratio,
				GapSeverity:        round2(ratio / (1 + ratio)),
				ProjectedGrowth:    growth,
				RecommendedActions: gapActions(name, ratio),
			})
		}
	}
	sort.SliceStable(out.SkillGaps, func(i, j int) bool {
		return out.SkillGaps[i].DemandSupplyRatio > out.SkillGaps[j].DemandSupplyRatio
	})
	return out
}

func gapActions(skill string, ratio float64) []string {
	switch {
	case ratio > 2:
		return []string{
			fmt.Sprintf("Source %s candidates outside the current talent pool", skill),
			fmt.Sprintf("Review %s rates against the market", skill),
		}
	case ratio > analytics.DefaultCriticalThreshold:
		return []string{fmt.Sprintf("Grow the %s pipeline", skill)}
	default:
		return []string{}
	}
}

func (a *Analytics) recommend(perf analytics.HiringPerformance, skills *analytics.SkillsAnalytics) []analytics.Recommendation {
	out := []analytics.Recommendation{}
	if perf.TimeToHire.Mean > slowHireDays {
		out = append(out, analytics.Recommendation{
			Category:       "time_to_hire",
			Severity:       "high",
			Recommendation: fmt.Sprintf("Average time to hire is %.1f days; shorten the interview loop", perf.TimeToHire.Mean),
		})
	}
	if fill, ok := perf.Trends["requisition_fill_rate"]; ok && len(perf.Metrics) > 0 && fill.Mean < lowFillRate {
		out = append(out, analytics.Recommendation{
			Category:       "fill_rate",
			Severity:       "medium",
			Recommendation: "Fill rate is below 50%; prioritize requisitions with matching candidates",
		})
	}
	if skills != nil {
		if critical := skills.CriticalSkills(analytics.DefaultCriticalThreshold); len(critical) > 0 {
			out = append(out, analytics.Recommendation{
				Category:       "skills",
				Severity:       "high",
				Recommendation: "Critical skill shortages: " + strings.Join(critical, ", "),
			})
		}
	}
	return out
}

// PerformanceReport summarizes the range. Summary reports leave out the detail sections.
func (a *Analytics) PerformanceReport(q analytics.ReportQuery) analytics.PerformanceReport {
	reportType := q.ReportType
	if reportType == "" {
		reportType = analytics.ReportTypeComprehensive
	}

	perf := a.HiringPerformance(analytics.PerformanceQuery{DateRange: q.DateRange, AggregationLevel: analytics.AggregationMonthly})
	skills := a.SkillTrends(analytics.SkillTrendsQuery{DateRange: q.DateRange})

	reqs, _ := a.store.snapshot()
	whole := bucket{start: q.StartDate, end: q.EndDate, last: true}
	totals := a.metricsFor(reqs, whole, nil)

	critical := skills.CriticalSkills(analytics.DefaultCriticalThreshold)
	if critical == nil {
		critical = []string{}
	}
	report := analytics.PerformanceReport{
		ReportType: reportType,
		Summary: analytics.ReportSummary{
			TotalRequisitions:  totals.TotalRequisitions,
			FilledRequisitions: totals.FilledRequisitions,
			AverageTimeToHire:  totals.AverageTimeToHire,
			FillRate:           totals.RequisitionFillRate,
			CriticalSkills:     critical,
		},
		Recommendations: a.recommend(perf, &skills),
		GeneratedAt:     a.now().UTC(),
		Period:          q.DateRange,
	}
	if reportType == analytics.ReportTypeComprehensive {
		report.HiringMetrics = &perf
		report.SkillAnalysis = &skills
	}
	return report
}
