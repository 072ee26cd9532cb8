package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"refactortrack/internal/auth"
	"refactortrack/internal/candidates"
	"refactortrack/internal/clients"
	"refactortrack/internal/requisitions"
	"refactortrack/internal/sdk"
	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/config"
	"refactortrack/internal/shared/constants"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/storage"

	"github.com/joho/godotenv"
)

type Seeder struct {
	rt *sdk.SDK
}

func main() {
	fmt.Println("🌱 Starting RefactorTrack Seeder...")

	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// The seeder never persists its session
	rt, err := sdk.New(ctx, cfg, sdk.Deps{Store: storage.NewMemory(), Logger: logger.GetDefault()})
	if err != nil {
		log.Fatalf("Failed to initialize SDK: %v", err)
	}
	defer rt.Close()

	seeder := &Seeder{rt: rt}

	fmt.Println("\n🔐 Logging in...")
	if err := seeder.Login(ctx, getEnv("SEED_EMAIL", "admin@refactortrack.dev"), getEnv("SEED_PASSWORD", "admin-password")); err != nil {
		log.Fatalf("Failed to log in: %v", err)
	}

	fmt.Println("\n🌱 Seeding data...")
	if err := seeder.SeedAll(ctx); err != nil {
		log.Fatalf("Failed to seed data: %v", err)
	}

	if err := rt.Session.Logout(ctx, false); err != nil {
		log.Printf("Warning: logout failed: %v", err)
	}
	fmt.Println("\n🎉 Seeding completed! Backend is ready for testing.")
}

// Login starts an admin session. MFA accounts are not supported here.
func (s *Seeder) Login(ctx context.Context, email, password string) error {
	result, err := s.rt.Session.Login(ctx, auth.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	if result.MFARequired() {
		return errors.New("seed account requires MFA; use an account without it")
	}
	fmt.Printf("  ✅ Logged in as %s (%s)\n", result.Auth.User.Email, result.Auth.User.Role)
	return nil
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll(ctx context.Context) error {
	clientIDs, err := s.SeedClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed clients: %w", err)
	}

	if err := s.SeedCandidates(ctx); err != nil {
		return fmt.Errorf("failed to seed candidates: %w", err)
	}

	if err := s.SeedRequisitions(ctx, clientIDs); err != nil {
		return fmt.Errorf("failed to seed requisitions: %w", err)
	}

	// Drop whatever the seeding reads cached
	if err := s.rt.Cache.Clear(ctx, constants.CachePrefixes...); err != nil {
		log.Printf("Warning: Failed to clear cache: %v", err)
	}
	return nil
}

// SeedClients creates the clients, reusing existing ones on a rerun
func (s *Seeder) SeedClients(ctx context.Context) (map[string]string, error) {
	fmt.Println("  🏢 Seeding clients...")

	clientsData := []clients.CreateClientRequest{
		{CompanyName: "Acme Robotics", Industry: "manufacturing", ContactName: "Ada Rivers", ContactEmail: "ada@acme-robotics.example.com", Status: clients.ClientStatusActive},
		{CompanyName: "Bluefin Health", Industry: "healthcare", ContactName: "Ben Ortiz", ContactEmail: "ben@bluefin.example.com", Status: clients.ClientStatusActive},
		{CompanyName: "Cobalt Payments", Industry: "finance", ContactName: "Cleo Park", ContactEmail: "cleo@cobalt.example.com", Status: clients.ClientStatusProspect},
	}

	ids := make(map[string]string, len(clientsData))
	for _, data := range clientsData {
		client, err := s.rt.Clients.CreateClient(ctx, data)
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			existing, err := s.findClient(ctx, data.CompanyName)
			if err != nil {
				return nil, err
			}
			ids[data.CompanyName] = existing.ID
			fmt.Printf("    ↩️  Client exists: %s\n", data.CompanyName)
		case err != nil:
			return nil, fmt.Errorf("failed to create client %s: %w", data.CompanyName, err)
		default:
			ids[data.CompanyName] = client.ID
			fmt.Printf("    ✅ Created client: %s\n", client.CompanyName)
		}
	}
	return ids, nil
}

func (s *Seeder) findClient(ctx context.Context, name string) (*clients.Client, error) {
	page, err := s.rt.Clients.GetClients(ctx, clients.ClientFilters{Search: name, Limit: 10})
	if err != nil {
		return nil, err
	}
	for _, c := range page.Items {
		if c.CompanyName == name {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("client %s reported as existing but not found", name)
}

// SeedCandidates creates candidates; existing emails are skipped
func (s *Seeder) SeedCandidates(ctx context.Context) error {
	fmt.Println("  🧑‍💻 Seeding candidates...")

	candidatesData := []candidates.CreateCandidateRequest{
		{FirstName: "Grace", LastName: "Kim", Email: "grace.kim@example.com", Location: "Seoul", Skills: []string{"Go", "gRPC", "Kubernetes"}, ExperienceYears: 9},
		{FirstName: "Hugo", LastName: "Lam", Email: "hugo.lam@example.com", Location: "Lisbon", Skills: []string{"Python", "Django", "PostgreSQL"}, ExperienceYears: 4},
		{FirstName: "Iris", LastName: "Noor", Email: "iris.noor@example.com", Location: "Remote", Skills: []string{"TypeScript", "React", "GraphQL"}, ExperienceYears: 6},
		{FirstName: "Jon", LastName: "Ode", Email: "jon.ode@example.com", Location: "Berlin", Skills: []string{"Rust", "Go"}, ExperienceYears: 12},
	}

	for _, data := range candidatesData {
		c, err := s.rt.Candidates.CreateCandidate(ctx, data)
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			fmt.Printf("    ↩️  Candidate exists: %s\n", data.Email)
		case err != nil:
			return fmt.Errorf("failed to create candidate %s: %w", data.Email, err)
		default:
			fmt.Printf("    ✅ Created candidate: %s\n", c.FullName())
		}
	}
	return nil
}

// SeedRequisitions opens positions at the seeded clients
func (s *Seeder) SeedRequisitions(ctx context.Context, clientIDs map[string]string) error {
	fmt.Println("  📋 Seeding requisitions...")

	deadline := time.Now().AddDate(0, 1, 0).UTC().Truncate(time.Second)
	requisitionsData := []requisitions.CreateRequisitionRequest{
		{Title: "Robotics Software Engineer", ClientID: clientIDs["Acme Robotics"], RequiredSkills: []string{"Go", "C++"}, Priority: requisitions.PriorityHigh, Openings: 2, Deadline: &deadline, RateMin: 80, RateMax: 110},
		{Title: "Clinical Data Analyst", ClientID: clientIDs["Bluefin Health"], RequiredSkills: []string{"SQL", "Python"}, Priority: requisitions.PriorityMedium, Openings: 1, RateMin: 60, RateMax: 80},
		{Title: "Payments Platform Lead", ClientID: clientIDs["Cobalt Payments"], RequiredSkills: []string{"Go", "Kubernetes", "PostgreSQL"}, Priority: requisitions.PriorityUrgent, Openings: 1, Deadline: &deadline, RateMin: 110, RateMax: 140},
	}

	for _, data := range requisitionsData {
		r, err := s.rt.Requisitions.CreateRequisition(ctx, data)
		if err != nil {
			return fmt.Errorf("failed to create requisition %s: %w", data.Title, err)
		}
		fmt.Printf("    ✅ Created requisition: %s at %s\n", r.Title, r.ClientName)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
