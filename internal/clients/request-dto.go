package clients

// ClientFilters are the list query parameters
type ClientFilters struct {
	Page     int          `json:"page,omitempty" form:"page" validate:"omitempty,min=1"`
	Limit    int          `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=100"`
	Search   string       `json:"search,omitempty" form:"search" validate:"omitempty,max=100"`
	Status   ClientStatus `json:"status,omitempty" form:"status" validate:"omitempty,oneof=active inactive prospect"`
	Industry string       `json:"industry,omitempty" form:"industry" validate:"omitempty,max=100"`
}

type CreateClientRequest struct {
	CompanyName  string       `json:"company_name" validate:"required,min=2,max=255"`
	Industry     string       `json:"industry" validate:"required,max=100"`
	ContactName  string       `json:"contact_name" validate:"required,max=255"`
	ContactEmail string       `json:"contact_email" validate:"required,email"`
	ContactPhone string       `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
	Status       ClientStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive prospect"`
	Address      string       `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes        string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateClientRequest is a partial update; nil fields are left unchanged
type UpdateClientRequest struct {
	CompanyName  *string       `json:"company_name,omitempty" validate:"omitempty,min=2,max=255"`
	Industry     *string       `json:"industry,omitempty" validate:"omitempty,max=100"`
	ContactName  *string       `json:"contact_name,omitempty" validate:"omitempty,max=255"`
	ContactEmail *string       `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string       `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
	Status       *ClientStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive prospect"`
	Address      *string       `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes        *string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type clientID struct {
	ID string `json:"id" validate:"required,max=64"`
}
