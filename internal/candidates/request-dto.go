package candidates

import "strings"

// CandidateFilters are the list and search query parameters. Skills match when the
// candidate has all of them.
type CandidateFilters struct {
	Page          int             `json:"page,omitempty" form:"page" validate:"omitempty,min=1"`
	Limit         int             `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=100"`
	Search        string          `json:"search,omitempty" form:"search" validate:"omitempty,max=100"`
	Skills        []string        `json:"skills,omitempty" form:"skills" validate:"omitempty,max=20,dive,required,max=50"`
	Status        CandidateStatus `json:"status,omitempty" form:"status" validate:"omitempty,oneof=active interviewing placed inactive"`
	Location      string          `json:"location,omitempty" form:"location" validate:"omitempty,max=100"`
	MinExperience int             `json:"min_experience,omitempty" form:"min_experience" validate:"omitempty,min=0,max=60"`
}

type CreateCandidateRequest struct {
	FirstName       string          `json:"first_name" validate:"required,max=100"`
	LastName        string          `json:"last_name" validate:"required,max=100"`
	Email           string          `json:"email" validate:"required,email"`
	Phone           string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	Location        string          `json:"location,omitempty" validate:"omitempty,max=100"`
	Skills          []string        `json:"skills" validate:"required,min=1,max=50,dive,required,max=50"`
	ExperienceYears int             `json:"experience_years" validate:"min=0,max=60"`
	Status          CandidateStatus `json:"status,omitempty" validate:"omitempty,oneof=active interviewing placed inactive"`
	ResumeURL       string          `json:"resume_url,omitempty" validate:"omitempty,url"`
}

// UpdateCandidateRequest is a partial update; nil fields are left unchanged
type UpdateCandidateRequest struct {
	FirstName       *string          `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName        *string          `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email           *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	Location        *string          `json:"location,omitempty" validate:"omitempty,max=100"`
	Skills          []string         `json:"skills,omitempty" validate:"omitempty,max=50,dive,required,max=50"`
	ExperienceYears *int             `json:"experience_years,omitempty" validate:"omitempty,min=0,max=60"`
	Status          *CandidateStatus `json:"status,omitempty" validate:"omitempty,oneof=active interviewing placed inactive"`
	ResumeURL       *string          `json:"resume_url,omitempty" validate:"omitempty,url"`
}

type candidateID struct {
	ID string `json:"id" validate:"required,max=64"`
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
