// Package devserver is an in-memory backend speaking the RefactorTrack API.
// It exists for local development, the seeder and end-to-end tests of the SDK.
package devserver

import (
	"time"

	"refactortrack/internal/shared/config"
	"refactortrack/internal/shared/validation"
	"refactortrack/pkg/logger"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Options configures the stub backend
type Options struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	MFACode    string
	BcryptCost int
	Accounts   []SeedAccount
	// SeedData loads the sample clients, candidates and requisitions
	SeedData bool
	Now      func() time.Time
	Logger   *logger.Logger
}

// OptionsFromConfig builds options from the process configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		JWTSecret:  cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.JWTExpiresIn,
		RefreshTTL: cfg.JWT.RefreshExpiresIn,
		MFACode:    cfg.JWT.DevMFACode,
		BcryptCost: bcrypt.DefaultCost,
		Accounts:   DefaultAccounts(),
		SeedData:   true,
	}
}

// Server wires the store, token service and controllers
type Server struct {
	Store     *Store
	Tokens    *TokenService
	Analytics *Analytics

	opts     Options
	validate *validator.Validate
	log      *logger.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetDefault()
	}

	store, err := NewStore(opts.Now, opts.Accounts, opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	if opts.SeedData {
		store.Seed()
	}

	return &Server{
		Store:     store,
		Tokens:    NewTokenService(opts.JWTSecret, opts.AccessTTL, opts.RefreshTTL),
		Analytics: &Analytics{store: store, now: opts.Now},
		opts:      opts,
		validate:  validation.New(),
		log:       opts.Logger.WithComponent("devserver"),
	}, nil
}
