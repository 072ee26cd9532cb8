package analytics

import (
	"math"
	"sort"
	"time"

	"refactortrack/internal/shared/pagination"
)

type MetricType string

const (
	MetricTimeToHire          MetricType = "time_to_hire"
	MetricSatisfaction        MetricType = "satisfaction"
	MetricRequisitionFillRate MetricType = "requisition_fill_rate"
	MetricSkillDemand         MetricType = "skill_demand"
)

type AggregationLevel string

const (
	AggregationDaily     AggregationLevel = "daily"
	AggregationWeekly    AggregationLevel = "weekly"
	AggregationMonthly   AggregationLevel = "monthly"
	AggregationQuarterly AggregationLevel = "quarterly"
	AggregationYearly    AggregationLevel = "yearly"
)

// Step returns the bucket width of the level. Months and quarters are approximated
// by 30 and 91 days.
func (a AggregationLevel) Step() time.Duration {
	day := 24 * time.Hour
	switch a {
	case AggregationDaily:
		return day
	case AggregationMonthly:
		return 30 * day
	case AggregationQuarterly:
		return 91 * day
	case AggregationYearly:
		return 365 * day
	default:
		return 7 * day
	}
}

type ReportType string

const (
	ReportTypeComprehensive ReportType = "comprehensive"
	ReportTypeSummary       ReportType = "summary"
)

// DefaultCriticalThreshold is the demand/supply ratio above which a skill is critical
const DefaultCriticalThreshold = 0.8

// DateRange bounds every analytics query. End may equal start.
type DateRange struct {
	StartDate time.Time `json:"start_date" form:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" form:"end_date" validate:"required,gtefield=StartDate"`
}

// LastDays is the range ending at now and starting n days earlier
func LastDays(now time.Time, n int) DateRange {
	end := now.UTC().Truncate(time.Second)
	return DateRange{StartDate: end.AddDate(0, 0, -n), EndDate: end}
}

func (d DateRange) Duration() time.Duration {
	return d.EndDate.Sub(d.StartDate)
}

type TrendPoint struct {
	Date       time.Time `json:"date"`
	Value      float64   `json:"value"`
	Confidence float64   `json:"confidence" validate:"min=0,max=1"`
}

// RecruitmentMetrics are the KPIs of one aggregation period
type RecruitmentMetrics struct {
	ID                     string             `json:"id" validate:"required"`
	TotalRequisitions      int                `json:"total_requisitions" validate:"min=0"`
	FilledRequisitions     int                `json:"filled_requisitions" validate:"min=0,ltefield=TotalRequisitions"`
	AverageTimeToHire      float64            `json:"average_time_to_hire" validate:"min=0"`
	ClientSatisfactionRate float64            `json:"client_satisfaction_rate" validate:"min=0,max=100"`
	RequisitionFillRate    float64            `json:"requisition_fill_rate" validate:"min=0,max=100"`
	PeriodStart            time.Time          `json:"period_start"`
	PeriodEnd              time.Time          `json:"period_end"`
	SkillBasedMetrics      map[string]float64 `json:"skill_based_metrics"`
	CreatedAt              time.Time          `json:"created_at"`
}

type SkillDemand struct {
	ID              string             `json:"id"`
	SkillName       string             `json:"skill_name" validate:"required"`
	DemandCount     int                `json:"demand_count" validate:"min=0"`
	GrowthRate      float64            `json:"growth_rate"`
	MarketRate      float64            `json:"market_rate" validate:"min=0"`
	HistoricalTrend []TrendPoint       `json:"historical_trend" validate:"dive"`
	RegionalDemand  map[string]float64 `json:"regional_demand"`
}

type SkillAvailability struct {
	SkillName                string         `json:"skill_name" validate:"required"`
	AvailableCandidates      int            `json:"available_candidates" validate:"min=0"`
	AverageExperience        float64        `json:"average_experience" validate:"min=0"`
	MarketAvailability       float64        `json:"market_availability" validate:"min=0,max=100"`
	GeographicalDistribution map[string]int `json:"geographical_distribution"`
}

type SkillGap struct {
	SkillName          string   `json:"skill_name" validate:"required"`
	DemandSupplyRatio  float64  `json:"demand_supply_ratio" validate:"min=0"`
	GapSeverity        float64  `json:"gap_severity" validate:"min=0,max=1"`
	ProjectedGrowth    float64  `json:"projected_growth"`
	RecommendedActions []string `json:"recommended_actions"`
}

// SkillsAnalytics is the skills landscape of a period: demand, supply and the gap
type SkillsAnalytics struct {
	ID                 string                  `json:"id" validate:"required"`
	SkillDemand        []SkillDemand           `json:"skill_demand" validate:"dive"`
	SkillAvailability  []SkillAvailability     `json:"skill_availability" validate:"dive"`
	SkillGaps          []SkillGap              `json:"skill_gaps" validate:"dive"`
	MarketTrends       map[string]float64      `json:"market_trends"`
	HistoricalAnalysis map[string][]TrendPoint `json:"historical_analysis"`
	CreatedAt          time.Time               `json:"created_at"`
}

// CriticalSkills lists the skills whose demand/supply ratio exceeds threshold, in gap order
func (s SkillsAnalytics) CriticalSkills(threshold float64) []string {
	var out []string
	for _, gap := range s.SkillGaps {
		if gap.DemandSupplyRatio > threshold {
			out = append(out, gap.SkillName)
		}
	}
	return out
}

type SkillGrowth struct {
	Skill  string  `json:"skill"`
	Growth float64 `json:"growth"`
}

// TrendingSkills returns at most limit skills by descending growth rate. Ties keep
// their demand order.
func (s SkillsAnalytics) TrendingSkills(limit int) []SkillGrowth {
	out := make([]SkillGrowth, 0, len(s.SkillDemand))
	for _, d := range s.SkillDemand {
		out = append(out, SkillGrowth{Skill: d.SkillName, Growth: d.GrowthRate})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Growth > out[j].Growth })

	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// TrendSummary describes one KPI series over the period
type TrendSummary struct {
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	StdDev     float64 `json:"std_dev"`
	Direction  string  `json:"trend_direction" validate:"oneof=up down flat"`
	ChangeRate float64 `json:"change_rate"`
}

// Summarize computes the summary of a series in period order
func Summarize(series []float64) TrendSummary {
	if len(series) == 0 {
		return TrendSummary{Direction: "flat"}
	}

	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(len(series))

	var sq float64
	for _, v := range series {
		sq += (v - mean) * (v - mean)
	}
	std := 0.0
	if len(series) > 1 {
		std = math.Sqrt(sq / float64(len(series)-1))
	}

	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	first, last := series[0], series[len(series)-1]
	direction := "flat"
	switch {
	case last > first:
		direction = "up"
	case last < first:
		direction = "down"
	}
	change := 0.0
	if first != 0 {
		change = (last - first) / first * 100
	}

	return TrendSummary{Mean: mean, Median: median, StdDev: std, Direction: direction, ChangeRate: change}
}

type Recommendation struct {
	Category       string `json:"category"`
	Severity       string `json:"severity" validate:"oneof=low medium high"`
	Recommendation string `json:"recommendation"`
}

// HiringPerformance is the per-period metrics with their trends
type HiringPerformance struct {
	AggregationLevel AggregationLevel        `json:"aggregation_level" validate:"required"`
	Metrics          []RecruitmentMetrics    `json:"metrics" validate:"dive"`
	TimeToHire       TrendSummary            `json:"time_to_hire"`
	Trends           map[string]TrendSummary `json:"trends"`
	Recommendations  []Recommendation        `json:"recommendations" validate:"dive"`
}

type ReportSummary struct {
	TotalRequisitions  int      `json:"total_requisitions"`
	FilledRequisitions int      `json:"filled_requisitions"`
	AverageTimeToHire  float64  `json:"average_time_to_hire"`
	FillRate           float64  `json:"fill_rate"`
	CriticalSkills     []string `json:"critical_skills"`
}

type PerformanceReport struct {
	ReportType      ReportType         `json:"report_type" validate:"required"`
	Summary         ReportSummary      `json:"summary"`
	HiringMetrics   *HiringPerformance `json:"hiring_metrics,omitempty"`
	SkillAnalysis   *SkillsAnalytics   `json:"skill_analysis,omitempty"`
	Recommendations []Recommendation   `json:"recommendations" validate:"dive"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Period          DateRange          `json:"period"`
}

type RefreshResult struct {
	Status      string    `json:"status" validate:"required"`
	Scope       string    `json:"scope"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Dashboard aggregates the three analytics reads of one period
type Dashboard struct {
	Period      DateRange                            `json:"period"`
	Metrics     *pagination.Page[RecruitmentMetrics] `json:"metrics"`
	Performance *HiringPerformance                   `json:"performance"`
	Skills      *SkillsAnalytics                     `json:"skills"`
}

// CriticalSkills is a shortcut to the dashboard's skills view
func (d Dashboard) CriticalSkills() []string {
	if d.Skills == nil {
		return nil
	}
	return d.Skills.CriticalSkills(DefaultCriticalThreshold)
}
