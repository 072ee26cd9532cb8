package candidates

import "time"

type CandidateStatus string

const (
	CandidateStatusActive       CandidateStatus = "active"
	CandidateStatusInterviewing CandidateStatus = "interviewing"
	CandidateStatusPlaced       CandidateStatus = "placed"
	CandidateStatusInactive     CandidateStatus = "inactive"
)

type Candidate struct {
	ID              string          `json:"id" validate:"required"`
	FirstName       string          `json:"first_name" validate:"required"`
	LastName        string          `json:"last_name" validate:"required"`
	Email           string          `json:"email" validate:"required,email"`
	Phone           string          `json:"phone,omitempty"`
	Location        string          `json:"location,omitempty"`
	Skills          []string        `json:"skills"`
	ExperienceYears int             `json:"experience_years" validate:"min=0"`
	Status          CandidateStatus `json:"status" validate:"required,oneof=active interviewing placed inactive"`
	ResumeURL       string          `json:"resume_url,omitempty" validate:"omitempty,url"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FullName joins first and last name
func (c Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}

// HasSkills reports whether the candidate lists every skill, ignoring case
func (c Candidate) HasSkills(skills ...string) bool {
	for _, want := range skills {
		found := false
		for _, have := range c.Skills {
			if equalFold(have, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
