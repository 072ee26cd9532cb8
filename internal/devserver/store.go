package devserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"refactortrack/internal/auth"
	"refactortrack/internal/candidates"
	"refactortrack/internal/clients"
	"refactortrack/internal/requisitions"
	"refactortrack/internal/shared/pagination"

	"github.com/google/uuid"
)

const resetTokenTTL = time.Hour

type resetToken struct {
	userID    string
	expiresAt time.Time
}

// Store is the in-memory data of the stub backend
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	accounts map[string]*account
	emails   map[string]string
	resets   map[string]resetToken

	clients      map[string]*clients.Client
	candidates   map[string]*candidates.Candidate
	requisitions map[string]*requisitions.Requisition
}

// NewStore creates a store holding the given accounts. Sample data is added by Seed.
func NewStore(now func() time.Time, seeds []SeedAccount, bcryptCost int) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		now:          now,
		accounts:     make(map[string]*account),
		emails:       make(map[string]string),
		resets:       make(map[string]resetToken),
		clients:      make(map[string]*clients.Client),
		candidates:   make(map[string]*candidates.Candidate),
		requisitions: make(map[string]*requisitions.Requisition),
	}
	for _, seed := range seeds {
		acc, err := newAccount(uuid.NewString(), seed, bcryptCost, now())
		if err != nil {
			return nil, err
		}
		if _, exists := s.emails[acc.user.Email]; exists {
			return nil, fmt.Errorf("duplicate account %s: %w", acc.user.Email, ErrConflict)
		}
		s.accounts[acc.user.ID] = acc
		s.emails[acc.user.Email] = acc.user.ID
	}
	return s, nil
}

// ================== ACCOUNTS ==================

// Authenticate checks an email/password pair. Unknown emails and wrong passwords
// give the same error.
func (s *Store) Authenticate(email, password string) (auth.User, error) {
	s.mu.RLock()
	acc, ok := s.accounts[s.emails[normalizeEmail(email)]]
	s.mu.RUnlock()
	if !ok || !acc.checkPassword(password) {
		return auth.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

// User returns the account snapshot of id
func (s *Store) User(id string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return auth.User{}, ErrUserNotFound
	}
	return acc.user, nil
}

// RecordLogin stamps the last login of id and returns the updated user
func (s *Store) RecordLogin(id string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return auth.User{}, ErrUserNotFound
	}
	now := s.now().UTC()
	acc.user.LastLogin = &now
	return acc.user, nil
}

// IssueResetToken creates a reset token for email. ok is false for unknown emails.
func (s *Store) IssueResetToken(email string) (token string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, exists := s.emails[normalizeEmail(email)]
	if !exists {
		return "", false
	}
	token = strings.ReplaceAll(uuid.NewString(), "-", "")
	s.resets[token] = resetToken{userID: id, expiresAt: s.now().Add(resetTokenTTL)}
	return token, true
}

// ResetPassword consumes a reset token and sets a new password
func (s *Store) ResetPassword(token, password string, bcryptCost int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.resets[token]
	delete(s.resets, token)
	if !ok || !s.now().Before(rt.expiresAt) {
		return ErrInvalidToken
	}
	acc, ok := s.accounts[rt.userID]
	if !ok {
		return ErrUserNotFound
	}
	seed := SeedAccount{Email: acc.user.Email, Password: password}
	fresh, err := newAccount(acc.user.ID, seed, bcryptCost, s.now())
	if err != nil {
		return err
	}
	acc.passwordHash = fresh.passwordHash
	acc.passwordChangedAt = fresh.passwordChangedAt
	return nil
}

// ================== CLIENTS ==================

func (s *Store) ListClients(f clients.ClientFilters) pagination.Page[clients.Client] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var out []clients.Client
	for _, c := range s.clients {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Industry != "" && !strings.EqualFold(c.Industry, f.Industry) {
			continue
		}
		if search != "" && !containsAny(search, c.CompanyName, c.ContactName, c.Industry) {
			continue
		}
		out = append(out, *c)
	}
	sortNewest(out, func(c clients.Client) (time.Time, string) { return c.CreatedAt, c.ID })
	return pagination.Slice(out, f.Page, f.Limit)
}

func (s *Store) GetClient(id string) (clients.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return clients.Client{}, ErrNotFound
	}
	return *c, nil
}

// CreateClient rejects a company name already in use
func (s *Store) CreateClient(req clients.CreateClientRequest) (clients.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clientNameTaken(req.CompanyName, "") {
		return clients.Client{}, ErrConflict
	}

	now := s.now().UTC()
	status := req.Status
	if status == "" {
		status = clients.ClientStatusProspect
	}
	c := &clients.Client{
		ID:           uuid.NewString(),
		CompanyName:  strings.TrimSpace(req.CompanyName),
		Industry:     req.Industry,
		ContactName:  req.ContactName,
		ContactEmail: normalizeEmail(req.ContactEmail),
		ContactPhone: req.ContactPhone,
		Status:       status,
		Address:      req.Address,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.clients[c.ID] = c
	return *c, nil
}

func (s *Store) UpdateClient(id string, req clients.UpdateClientRequest) (clients.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return clients.Client{}, ErrNotFound
	}
	if req.CompanyName != nil && s.clientNameTaken(*req.CompanyName, id) {
		return clients.Client{}, ErrConflict
	}

	next := *c
	setIf(&next.CompanyName, req.CompanyName)
	setIf(&next.Industry, req.Industry)
	setIf(&next.ContactName, req.ContactName)
	setIf(&next.ContactEmail, req.ContactEmail)
	setIf(&next.ContactPhone, req.ContactPhone)
	setIf(&next.Status, req.Status)
	setIf(&next.Address, req.Address)
	setIf(&next.Notes, req.Notes)
	next.UpdatedAt = s.now().UTC()
	*c = next

	// denormalized name on requisitions
	for _, r := range s.requisitions {
		if r.ClientID == id {
			r.ClientName = c.CompanyName
		}
	}
	return *c, nil
}

// DeleteClient refuses while the client has active requisitions and removes the
// inactive ones with it
func (s *Store) DeleteClient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return ErrNotFound
	}
	for _, r := range s.requisitions {
		if r.ClientID == id && r.IsActive() {
			return ErrConflict
		}
	}
	for rid, r := range s.requisitions {
		if r.ClientID == id {
			delete(s.requisitions, rid)
		}
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) clientNameTaken(name, exceptID string) bool {
	name = strings.TrimSpace(name)
	for id, c := range s.clients {
		if id != exceptID && strings.EqualFold(c.CompanyName, name) {
			return true
		}
	}
	return false
}

// ================== CANDIDATES ==================

func (s *Store) ListCandidates(f candidates.CandidateFilters) pagination.Page[candidates.Candidate] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var out []candidates.Candidate
	for _, c := range s.candidates {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Location != "" && !strings.EqualFold(c.Location, f.Location) {
			continue
		}
		if c.ExperienceYears < f.MinExperience {
			continue
		}
		if len(f.Skills) > 0 && !c.HasSkills(f.Skills...) {
			continue
		}
		if search != "" && !containsAny(search, c.FullName(), c.Email, strings.Join(c.Skills, " ")) {
			continue
		}
		out = append(out, *c)
	}
	sortNewest(out, func(c candidates.Candidate) (time.Time, string) { return c.CreatedAt, c.ID })
	return pagination.Slice(out, f.Page, f.Limit)
}

func (s *Store) GetCandidate(id string) (candidates.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return candidates.Candidate{}, ErrNotFound
	}
	return *c, nil
}

// CreateCandidate rejects an email already in use
func (s *Store) CreateCandidate(req candidates.CreateCandidateRequest) (candidates.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(req.Email)
	if s.candidateEmailTaken(email, "") {
		return candidates.Candidate{}, ErrConflict
	}

	now := s.now().UTC()
	status := req.Status
	if status == "" {
		status = candidates.CandidateStatusActive
	}
	c := &candidates.Candidate{
		ID:              uuid.NewString(),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           email,
		Phone:           req.Phone,
		Location:        req.Location,
		Skills:          normalizeSkills(req.Skills),
		ExperienceYears: req.ExperienceYears,
		Status:          status,
		ResumeURL:       req.ResumeURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.candidates[c.ID] = c
	return *c, nil
}

func (s *Store) UpdateCandidate(id string, req candidates.UpdateCandidateRequest) (candidates.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return candidates.Candidate{}, ErrNotFound
	}
	if req.Email != nil && s.candidateEmailTaken(normalizeEmail(*req.Email), id) {
		return candidates.Candidate{}, ErrConflict
	}

	next := *c
	setIf(&next.FirstName, req.FirstName)
	setIf(&next.LastName, req.LastName)
	if req.Email != nil {
		next.Email = normalizeEmail(*req.Email)
	}
	setIf(&next.Phone, req.Phone)
	setIf(&next.Location, req.Location)
	if req.Skills != nil {
		next.Skills = normalizeSkills(req.Skills)
	}
	setIf(&next.ExperienceYears, req.ExperienceYears)
	setIf(&next.Status, req.Status)
	setIf(&next.ResumeURL, req.ResumeURL)
	next.UpdatedAt = s.now().UTC()
	*c = next
	return *c, nil
}

func (s *Store) DeleteCandidate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return ErrNotFound
	}
	delete(s.candidates, id)
	return nil
}

func (s *Store) candidateEmailTaken(email, exceptID string) bool {
	for id, c := range s.candidates {
		if id != exceptID && c.Email == email {
			return true
		}
	}
	return false
}

// ================== REQUISITIONS ==================

func (s *Store) ListRequisitions(f requisitions.RequisitionFilters) pagination.Page[requisitions.Requisition] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var out []requisitions.Requisition
	for _, r := range s.requisitions {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Priority != "" && r.Priority != f.Priority {
			continue
		}
		if f.ClientID != "" && r.ClientID != f.ClientID {
			continue
		}
		if search != "" && !containsAny(search, r.Title, r.ClientName, strings.Join(r.RequiredSkills, " ")) {
			continue
		}
		out = append(out, *r)
	}
	sortNewest(out, func(r requisitions.Requisition) (time.Time, string) { return r.CreatedAt, r.ID })
	return pagination.Slice(out, f.Page, f.Limit)
}

func (s *Store) GetRequisition(id string) (requisitions.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requisitions[id]
	if !ok {
		return requisitions.Requisition{}, ErrNotFound
	}
	return *r, nil
}

// CreateRequisition requires an existing, non-inactive client
func (s *Store) CreateRequisition(req requisitions.CreateRequisitionRequest) (requisitions.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[req.ClientID]
	if !ok {
		return requisitions.Requisition{}, ErrNotFound
	}
	if client.Status == clients.ClientStatusInactive {
		return requisitions.Requisition{}, ErrConflict
	}

	now := s.now().UTC()
	status := req.Status
	if status == "" {
		status = requisitions.RequisitionStatusOpen
	}
	r := &requisitions.Requisition{
		ID:             uuid.NewString(),
		Title:          req.Title,
		ClientID:       client.ID,
		ClientName:     client.CompanyName,
		Description:    req.Description,
		RequiredSkills: normalizeSkills(req.RequiredSkills),
		Location:       req.Location,
		Status:         status,
		Priority:       req.Priority,
		Openings:       req.Openings,
		Deadline:       req.Deadline,
		RateMin:        req.RateMin,
		RateMax:        req.RateMax,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.requisitions[r.ID] = r
	return *r, nil
}

// UpdateRequisition refuses closed requisitions and rate ranges that end up inverted
func (s *Store) UpdateRequisition(id string, req requisitions.UpdateRequisitionRequest) (requisitions.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requisitions[id]
	if !ok {
		return requisitions.Requisition{}, ErrNotFound
	}
	if r.Status == requisitions.RequisitionStatusClosed {
		return requisitions.Requisition{}, ErrConflict
	}

	next := *r
	setIf(&next.Title, req.Title)
	setIf(&next.Description, req.Description)
	if req.RequiredSkills != nil {
		next.RequiredSkills = normalizeSkills(req.RequiredSkills)
	}
	setIf(&next.Location, req.Location)
	setIf(&next.Status, req.Status)
	setIf(&next.Priority, req.Priority)
	setIf(&next.Openings, req.Openings)
	if req.Deadline != nil {
		next.Deadline = req.Deadline
	}
	setIf(&next.RateMin, req.RateMin)
	setIf(&next.RateMax, req.RateMax)
	if next.RateMax < next.RateMin {
		return requisitions.Requisition{}, fmt.Errorf("rate_max below rate_min: %w", ErrConflict)
	}
	next.UpdatedAt = s.now().UTC()
	*r = next
	return *r, nil
}

// CloseRequisition closes a requisition once. A "filled" reason marks it filled.
func (s *Store) CloseRequisition(id string, req requisitions.CloseRequisitionRequest) (requisitions.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requisitions[id]
	if !ok {
		return requisitions.Requisition{}, ErrNotFound
	}
	if r.Status == requisitions.RequisitionStatusClosed || r.Status == requisitions.RequisitionStatusFilled {
		return requisitions.Requisition{}, ErrConflict
	}

	r.Status = requisitions.RequisitionStatusClosed
	if req.Reason == "filled" {
		r.Status = requisitions.RequisitionStatusFilled
	}
	r.CloseReason = req.Reason
	r.UpdatedAt = s.now().UTC()
	return *r, nil
}

func (s *Store) DeleteRequisition(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requisitions[id]; !ok {
		return ErrNotFound
	}
	delete(s.requisitions, id)
	return nil
}

// snapshot copies the requisitions and candidates for analytics
func (s *Store) snapshot() ([]requisitions.Requisition, []candidates.Candidate) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqs := make([]requisitions.Requisition, 0, len(s.requisitions))
	for _, r := range s.requisitions {
		reqs = append(reqs, *r)
	}
	cands := make([]candidates.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		cands = append(cands, *c)
	}
	sortNewest(reqs, func(r requisitions.Requisition) (time.Time, string) { return r.CreatedAt, r.ID })
	sortNewest(cands, func(c candidates.Candidate) (time.Time, string) { return c.CreatedAt, c.ID })
	return reqs, cands
}

// ================== HELPERS ==================

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func containsAny(needle string, haystack ...string) bool {
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}

// sortNewest orders by creation time descending with the id as tie-breaker
func sortNewest[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi < idj
	})
}
