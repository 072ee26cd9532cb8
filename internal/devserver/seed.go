package devserver

import (
	"fmt"
	"time"

	"refactortrack/internal/candidates"
	"refactortrack/internal/clients"
	"refactortrack/internal/requisitions"

	"github.com/google/uuid"
)

// seedNamespace keeps sample ids stable across restarts
var seedNamespace = uuid.MustParse("3f0c2a8e-5b8d-4c4b-9a59-2d0f1c7e6a11")

type sampleClient struct {
	name, industry, contact string
	status                  clients.ClientStatus
}

var sampleClients = []sampleClient{
	{"Northwind Logistics", "logistics", "Nora West", clients.ClientStatusActive},
	{"Helix Biotech", "healthcare", "Hector Lin", clients.ClientStatusActive},
	{"Brightline Finance", "finance", "Bea Hart", clients.ClientStatusActive},
	{"Quarry Games", "gaming", "Quinn Moss", clients.ClientStatusProspect},
	{"Oldmill Retail", "retail", "Olga Mill", clients.ClientStatusInactive},
}

type sampleRequisition struct {
	title    string
	client   int
	skills   []string
	priority requisitions.Priority
	status   requisitions.RequisitionStatus
	ageDays  int
	fillDays int
	rate     float64
}

var sampleRequisitions = []sampleRequisition{
	{"Senior Go Engineer", 0, []string{"Go", "Kubernetes", "PostgreSQL"}, requisitions.PriorityHigh, requisitions.RequisitionStatusOpen, 12, 0, 95},
	{"Platform SRE", 0, []string{"Kubernetes", "Terraform", "AWS"}, requisitions.PriorityUrgent, requisitions.RequisitionStatusOpen, 5, 0, 100},
	{"Data Engineer", 1, []string{"Python", "Spark", "SQL"}, requisitions.PriorityMedium, requisitions.RequisitionStatusFilled, 70, 28, 85},
	{"ML Engineer", 1, []string{"Python", "PyTorch", "Kubernetes"}, requisitions.PriorityHigh, requisitions.RequisitionStatusOpen, 30, 0, 110},
	{"Frontend Developer", 2, []string{"TypeScript", "React"}, requisitions.PriorityMedium, requisitions.RequisitionStatusFilled, 55, 21, 75},
	{"Backend Java Developer", 2, []string{"Java", "Spring", "SQL"}, requisitions.PriorityLow, requisitions.RequisitionStatusOnHold, 40, 0, 80},
	{"QA Automation Engineer", 2, []string{"TypeScript", "Playwright"}, requisitions.PriorityLow, requisitions.RequisitionStatusFilled, 85, 35, 60},
	{"Game Server Engineer", 3, []string{"Go", "Redis"}, requisitions.PriorityMedium, requisitions.RequisitionStatusDraft, 3, 0, 90},
	{"Store Analyst", 4, []string{"SQL", "Excel"}, requisitions.PriorityLow, requisitions.RequisitionStatusClosed, 80, 0, 45},
}

type sampleCandidate struct {
	first, last, location string
	skills                []string
	years                 int
	status                candidates.CandidateStatus
	ageDays               int
}

var sampleCandidates = []sampleCandidate{
	{"Liam", "Baker", "Berlin", []string{"Go", "Kubernetes", "AWS"}, 8, candidates.CandidateStatusActive, 20},
	{"Emma", "Clarke", "London", []string{"Python", "Spark", "SQL"}, 5, candidates.CandidateStatusPlaced, 60},
	{"Noah", "Diaz", "Madrid", []string{"TypeScript", "React", "Playwright"}, 3, candidates.CandidateStatusInterviewing, 15},
	{"Olivia", "Evans", "Berlin", []string{"Java", "Spring", "SQL"}, 11, candidates.CandidateStatusActive, 45},
	{"Ava", "Fischer", "Remote", []string{"Python", "PyTorch"}, 4, candidates.CandidateStatusActive, 9},
	{"Lucas", "Garcia", "London", []string{"Terraform", "AWS", "Kubernetes"}, 7, candidates.CandidateStatusInterviewing, 6},
	{"Mia", "Hughes", "Remote", []string{"SQL", "Excel"}, 2, candidates.CandidateStatusInactive, 75},
}

// Seed loads the sample clients, requisitions and candidates, dated relative to now
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Second)
	ago := func(days int) time.Time { return now.AddDate(0, 0, -days) }

	clientIDs := make([]string, len(sampleClients))
	for i, sc := range sampleClients {
		id := seedID("client", i)
		clientIDs[i] = id
		s.clients[id] = &clients.Client{
			ID:           id,
			CompanyName:  sc.name,
			Industry:     sc.industry,
			ContactName:  sc.contact,
			ContactEmail: fmt.Sprintf("hiring@client%d.example.com", i+1),
			Status:       sc.status,
			CreatedAt:    ago(120 - i*5),
			UpdatedAt:    ago(120 - i*5),
		}
	}

	for i, sr := range sampleRequisitions {
		id := seedID("requisition", i)
		created := ago(sr.ageDays)
		updated := created
		reason := ""
		switch sr.status {
		case requisitions.RequisitionStatusFilled:
			updated = created.AddDate(0, 0, sr.fillDays)
			reason = "filled"
		case requisitions.RequisitionStatusClosed:
			updated = created.AddDate(0, 0, 10)
			reason = "client_withdrawn"
		}
		deadline := created.AddDate(0, 0, 45)
		client := s.clients[clientIDs[sr.client]]
		s.requisitions[id] = &requisitions.Requisition{
			ID:             id,
			Title:          sr.title,
			ClientID:       client.ID,
			ClientName:     client.CompanyName,
			RequiredSkills: sr.skills,
			Location:       "Remote",
			Status:         sr.status,
			Priority:       sr.priority,
			Openings:       1,
			Deadline:       &deadline,
			RateMin:        sr.rate * 0.8,
			RateMax:        sr.rate,
			CloseReason:    reason,
			CreatedAt:      created,
			UpdatedAt:      updated,
		}
	}

	for i, sc := range sampleCandidates {
		id := seedID("candidate", i)
		s.candidates[id] = &candidates.Candidate{
			ID:              id,
			FirstName:       sc.first,
			LastName:        sc.last,
			Email:           fmt.Sprintf("%s.%s@candidates.example.com", normalizeEmail(sc.first), normalizeEmail(sc.last)),
			Location:        sc.location,
			Skills:          sc.skills,
			ExperienceYears: sc.years,
			Status:          sc.status,
			CreatedAt:       ago(sc.ageDays),
			UpdatedAt:       ago(sc.ageDays),
		}
	}
}

func seedID(kind string, i int) string {
	return uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("%s-%d", kind, i))).String()
}
