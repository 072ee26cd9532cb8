package analytics

type MetricsQuery struct {
	DateRange
	MetricTypes []MetricType `json:"metric_types,omitempty" form:"metric_types" validate:"omitempty,max=4,dive,oneof=time_to_hire satisfaction requisition_fill_rate skill_demand"`
	Page        int          `json:"page,omitempty" form:"page" validate:"omitempty,min=1"`
	Limit       int          `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=100"`
}

type PerformanceQuery struct {
	DateRange
	AggregationLevel AggregationLevel `json:"aggregation_level,omitempty" form:"aggregation_level" validate:"omitempty,oneof=daily weekly monthly quarterly yearly"`
}

type SkillTrendsQuery struct {
	DateRange
	SkillCategories []string `json:"skill_categories,omitempty" form:"skill_categories" validate:"omitempty,max=20,dive,required,max=50"`
}

type ReportQuery struct {
	DateRange
	ReportType ReportType `json:"report_type,omitempty" form:"report_type" validate:"omitempty,oneof=comprehensive summary"`
}

// RefreshRequest asks the backend to recompute its aggregates. Admin only.
type RefreshRequest struct {
	Scope string `json:"scope,omitempty" validate:"omitempty,oneof=all metrics skills"`
}
