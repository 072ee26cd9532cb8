package clients

import "time"

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusProspect ClientStatus = "prospect"
)

// Client is a hiring company the agency recruits for
type Client struct {
	ID           string       `json:"id" validate:"required"`
	CompanyName  string       `json:"company_name" validate:"required"`
	Industry     string       `json:"industry"`
	ContactName  string       `json:"contact_name"`
	ContactEmail string       `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string       `json:"contact_phone,omitempty"`
	Status       ClientStatus `json:"status" validate:"required,oneof=active inactive prospect"`
	Address      string       `json:"address,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
