package requisitions

import "time"

type RequisitionFilters struct {
	Page     int               `json:"page,omitempty" form:"page" validate:"omitempty,min=1"`
	Limit    int               `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=100"`
	Search   string            `json:"search,omitempty" form:"search" validate:"omitempty,max=100"`
	Status   RequisitionStatus `json:"status,omitempty" form:"status" validate:"omitempty,oneof=draft open on_hold filled closed"`
	Priority Priority          `json:"priority,omitempty" form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ClientID string            `json:"client_id,omitempty" form:"client_id" validate:"omitempty,max=64"`
}

type CreateRequisitionRequest struct {
	Title          string            `json:"title" validate:"required,min=3,max=255"`
	ClientID       string            `json:"client_id" validate:"required,max=64"`
	Description    string            `json:"description,omitempty" validate:"omitempty,max=5000"`
	RequiredSkills []string          `json:"required_skills" validate:"required,min=1,max=30,dive,required,max=50"`
	Location       string            `json:"location,omitempty" validate:"omitempty,max=100"`
	Status         RequisitionStatus `json:"status,omitempty" validate:"omitempty,oneof=draft open"`
	Priority       Priority          `json:"priority" validate:"required,oneof=low medium high urgent"`
	Openings       int               `json:"openings" validate:"required,min=1,max=500"`
	Deadline       *time.Time        `json:"deadline,omitempty"`
	RateMin        float64           `json:"rate_min" validate:"min=0"`
	RateMax        float64           `json:"rate_max" validate:"gtefield=RateMin"`
}

// UpdateRequisitionRequest is a partial update. Closing goes through Close.
type UpdateRequisitionRequest struct {
	Title          *string            `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description    *string            `json:"description,omitempty" validate:"omitempty,max=5000"`
	RequiredSkills []string           `json:"required_skills,omitempty" validate:"omitempty,max=30,dive,required,max=50"`
	Location       *string            `json:"location,omitempty" validate:"omitempty,max=100"`
	Status         *RequisitionStatus `json:"status,omitempty" validate:"omitempty,oneof=draft open on_hold filled"`
	Priority       *Priority          `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Openings       *int               `json:"openings,omitempty" validate:"omitempty,min=1,max=500"`
	Deadline       *time.Time         `json:"deadline,omitempty"`
	RateMin        *float64           `json:"rate_min,omitempty" validate:"omitempty,min=0"`
	RateMax        *float64           `json:"rate_max,omitempty" validate:"omitempty,min=0"`
}

type CloseRequisitionRequest struct {
	Reason string `json:"reason" validate:"required,oneof=filled cancelled client_withdrawn duplicate"`
	Notes  string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type requisitionID struct {
	ID string `json:"id" validate:"required,max=64"`
}
