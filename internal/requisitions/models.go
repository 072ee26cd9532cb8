package requisitions

import "time"

type RequisitionStatus string

const (
	RequisitionStatusDraft  RequisitionStatus = "draft"
	RequisitionStatusOpen   RequisitionStatus = "open"
	RequisitionStatusOnHold RequisitionStatus = "on_hold"
	RequisitionStatusFilled RequisitionStatus = "filled"
	RequisitionStatusClosed RequisitionStatus = "closed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Requisition is an open position at a client
type Requisition struct {
	ID             string            `json:"id" validate:"required"`
	Title          string            `json:"title" validate:"required"`
	ClientID       string            `json:"client_id" validate:"required"`
	ClientName     string            `json:"client_name,omitempty"`
	Description    string            `json:"description,omitempty"`
	RequiredSkills []string          `json:"required_skills"`
	Location       string            `json:"location,omitempty"`
	Status         RequisitionStatus `json:"status" validate:"required,oneof=draft open on_hold filled closed"`
	Priority       Priority          `json:"priority" validate:"required,oneof=low medium high urgent"`
	Openings       int               `json:"openings" validate:"min=0"`
	Deadline       *time.Time        `json:"deadline,omitempty"`
	RateMin        float64           `json:"rate_min" validate:"min=0"`
	RateMax        float64           `json:"rate_max" validate:"gtefield=RateMin"`
	CloseReason    string            `json:"close_reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// IsActive reports whether the requisition is still being worked
func (r Requisition) IsActive() bool {
	return r.Status == RequisitionStatusOpen || r.Status == RequisitionStatusOnHold
}

// Overdue reports whether an active requisition is past its deadline
func (r Requisition) Overdue(now time.Time) bool {
	return r.IsActive() && r.Deadline != nil && now.After(*r.Deadline)
}
