package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"refactortrack/internal/audit"
	"refactortrack/internal/auth"
	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/constants"
	"refactortrack/internal/shared/validation"
	"refactortrack/pkg/cache"
	"refactortrack/pkg/clock"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/metrics"
	"refactortrack/pkg/retry"
	"refactortrack/pkg/storage"

	"github.com/go-playground/validator/v10"
)

const timerRefreshBudget = 30 * time.Second

// Authenticator is the backend side of the session
type Authenticator interface {
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error)
	VerifyMFA(ctx context.Context, req *auth.MFAVerifyRequest) (*auth.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// Canceller aborts outstanding API calls
type Canceller interface {
	CancelInFlight()
}

// Options configures a Manager
type Options struct {
	RefreshBuffer    time.Duration
	IdleTimeout      time.Duration
	RefreshAttempts  int
	RefreshBaseDelay time.Duration
	RefreshMaxDelay  time.Duration
	DeviceID         string

	// Sleep overrides the wait between refresh attempts
	Sleep func(ctx context.Context, d time.Duration) error

	Clock   clock.Clock
	Logger  *logger.Logger
	Metrics *metrics.Client
	Audit   audit.Publisher
}

// Manager owns the one authoritative token pair and user of the process.
// Every failure path ends in "clear state and require re-login".
type Manager struct {
	authn    Authenticator
	vault    *storage.Vault
	store    storage.Storage
	cache    *cache.Cache
	opts     Options
	clock    clock.Clock
	log      *logger.Logger
	audit    audit.Publisher
	validate *validator.Validate

	// serializes refresh calls so concurrent callers share one rotation
	refreshMu sync.Mutex

	mu           sync.Mutex
	current      *persisted
	lastActivity time.Time
	timer        clock.Timer
	generation   uint64
	mfaPending   bool
	lastErr      error
	calls        Canceller
	hooks        []func()
}

// NewManager creates a session manager. vault holds the sealed session, store the
// activity entry, c is the read cache purged on forced logout.
func NewManager(authn Authenticator, vault *storage.Vault, store storage.Storage, c *cache.Cache, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetDefault()
	}
	if opts.Audit == nil {
		opts.Audit = audit.Noop{}
	}
	if opts.RefreshAttempts < 1 {
		opts.RefreshAttempts = 3
	}
	if opts.RefreshBaseDelay <= 0 {
		opts.RefreshBaseDelay = 500 * time.Millisecond
	}
	if opts.RefreshMaxDelay <= 0 {
		opts.RefreshMaxDelay = 5 * time.Second
	}

	return &Manager{
		authn:    authn,
		vault:    vault,
		store:    store,
		cache:    c,
		opts:     opts,
		clock:    opts.Clock,
		log:      opts.Logger.WithComponent("session"),
		audit:    opts.Audit,
		validate: validation.New(),
	}
}

// SetCanceller wires the API client so logout can abort its calls
func (m *Manager) SetCanceller(c Canceller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = c
}

// OnForcedLogout registers a hook run after every forced logout
func (m *Manager) OnForcedLogout(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Login authenticates with email and password. An MFA account answers with a
// challenge and nothing is persisted until VerifyMFA succeeds.
func (m *Manager) Login(ctx context.Context, creds auth.LoginRequest) (*LoginResult, error) {
	if err := m.validate.Struct(creds); err != nil {
		return nil, m.loginFailed(ctx, "invalid_credentials", apperrors.ErrValidation)
	}
	creds.DeviceID = m.opts.DeviceID

	resp, err := m.authn.Login(ctx, &creds)
	if err != nil {
		return nil, m.loginFailed(ctx, "backend_rejected", err)
	}

	if resp.MFARequired {
		challenge := resp.Challenge()

		m.mu.Lock()
		m.mfaPending = true
		m.lastErr = nil
		m.mu.Unlock()

		m.publish(ctx, audit.EventMFAChallenged, nil, "")
		return &LoginResult{Challenge: &challenge}, nil
	}

	state, err := m.establish(ctx, resp.Auth(), "password")
	if err != nil {
		return nil, m.loginFailed(ctx, "session_rejected", err)
	}
	return &LoginResult{Auth: state}, nil
}

// VerifyMFA completes a login that answered with challenge
func (m *Manager) VerifyMFA(ctx context.Context, challenge auth.MFAChallenge, code string) (*AuthState, error) {
	if challenge.Expired(m.clock.Now()) {
		return nil, m.loginFailed(ctx, "mfa_challenge_expired", apperrors.ErrAuthenticationFailed)
	}

	req := auth.MFAVerifyRequest{MFAToken: challenge.MFAToken, Code: code, DeviceID: m.opts.DeviceID}
	if err := m.validate.Struct(req); err != nil {
		return nil, m.loginFailed(ctx, "invalid_mfa_code", apperrors.ErrValidation)
	}

	resp, err := m.authn.VerifyMFA(ctx, &req)
	if err != nil {
		return nil, m.loginFailed(ctx, "mfa_rejected", err)
	}

	state, err := m.establish(ctx, *resp, "mfa")
	if err != nil {
		return nil, m.loginFailed(ctx, "session_rejected", err)
	}
	return state, nil
}

// establish persists a fresh session and arms the refresh timer
func (m *Manager) establish(ctx context.Context, resp auth.AuthResponse, method string) (*AuthState, error) {
	tokens, err := resp.Tokens.Normalize()
	if err != nil {
		return nil, apperrors.ResponseShape("tokens", err)
	}
	now := m.clock.Now()
	if !tokens.Valid(now) {
		return nil, apperrors.ResponseShape("tokens", errors.New("expired on arrival"))
	}
	doc := &persisted{User: resp.User, Tokens: tokens}

	m.mu.Lock()
	if err := m.claimCache(ctx, doc.User.ID); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if err := m.vault.Save(ctx, doc); err != nil {
		m.mu.Unlock()
		return nil, apperrors.Storage("persist session", err)
	}
	if err := m.writeActivity(ctx, now); err != nil {
		_ = m.vault.Clear(ctx)
		m.mu.Unlock()
		return nil, apperrors.Storage("record activity", err)
	}

	m.stopTimerLocked()
	m.generation++
	m.current = doc
	m.lastActivity = now
	m.mfaPending = false
	m.lastErr = nil
	m.scheduleLocked()
	state := m.stateLocked()
	m.mu.Unlock()

	m.log.LogAuthSuccess(ctx, doc.User.ID, method)
	m.publish(ctx, audit.EventLoginSucceeded, &doc.User, method)
	return &state, nil
}

// claimCache hands the read cache to userID. Cache keys carry no identity, so reads
// cached for anyone else (or for nobody known) are purged first.
func (m *Manager) claimCache(ctx context.Context, userID string) error {
	if m.cache == nil {
		return nil
	}
	owner, err := m.store.Get(ctx, constants.STORAGE_KEY_CACHE_OWNER)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return apperrors.Storage("read cache owner", err)
	}
	if err == nil && string(owner) == userID {
		return nil
	}
	if err := m.cache.Clear(ctx, constants.CachePrefixes...); err != nil {
		return apperrors.Storage("purge cache", err)
	}
	if err := m.store.Set(ctx, constants.STORAGE_KEY_CACHE_OWNER, []byte(userID)); err != nil {
		return apperrors.Storage("record cache owner", err)
	}
	return nil
}

// loginFailed maps a login failure to what the caller may see. Credential and shape
// problems collapse into ErrAuthenticationFailed so no field is ever named.
func (m *Manager) loginFailed(ctx context.Context, reason string, cause error) error {
	var err error
	switch {
	case errors.Is(cause, apperrors.ErrStorage):
		err = cause
	case errors.Is(cause, apperrors.ErrValidation),
		errors.Is(cause, apperrors.ErrResponseShape),
		errors.Is(cause, apperrors.ErrAuthenticationFailed),
		apperrors.IsAuthorization(cause):
		err = apperrors.ErrAuthenticationFailed
	default:
		err = fmt.Errorf("login: %w", cause)
	}

	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()

	m.log.LogSessionEvent(ctx, string(audit.EventLoginFailed), "", map[string]interface{}{"reason": reason})
	m.publish(ctx, audit.EventLoginFailed, nil, reason)
	return err
}

// Refresh rotates the token pair. An expired refresh token ends the session without
// a network call; any terminal refresh failure ends it too.
func (m *Manager) Refresh(ctx context.Context) (auth.TokenPair, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	return m.refreshLocked(ctx)
}

// refreshIfStale refreshes unless another caller already replaced stale
func (m *Manager) refreshIfStale(ctx context.Context, stale string) (auth.TokenPair, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur != nil && cur.Tokens.AccessToken != stale && !cur.Tokens.AccessExpired(m.clock.Now()) {
		return cur.Tokens, nil
	}
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) (auth.TokenPair, error) {
	m.mu.Lock()
	cur := m.current
	gen := m.generation
	m.mu.Unlock()

	if cur == nil {
		return auth.TokenPair{}, apperrors.ErrNotAuthenticated
	}
	if cur.Tokens.RefreshExpired(m.clock.Now()) {
		m.expire(ctx, "refresh_token_expired")
		return auth.TokenPair{}, apperrors.ErrSessionExpired
	}

	policy := retry.Policy{
		Attempts:  m.opts.RefreshAttempts,
		BaseDelay: m.opts.RefreshBaseDelay,
		MaxDelay:  m.opts.RefreshMaxDelay,
		Retryable: apperrors.IsRetryable,
		Sleep:     m.opts.Sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			m.log.LogRetry(ctx, "token refresh", attempt, delay, err)
			m.opts.Metrics.Retry("token_refresh")
		},
	}

	var pair *auth.TokenPair
	err := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		p, err := m.authn.Refresh(ctx, cur.Tokens.RefreshToken)
		pair = p
		return err
	})

	var tokens auth.TokenPair
	if err == nil {
		tokens, err = pair.Normalize()
		if err != nil {
			err = apperrors.ResponseShape("refreshed tokens", err)
		} else if !tokens.Valid(m.clock.Now()) {
			err = apperrors.ResponseShape("refreshed tokens", errors.New("expired on arrival"))
		}
	}

	if err != nil {
		// the caller gave up; the server has not ruled on the session
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return auth.TokenPair{}, err
		}
		m.publish(ctx, audit.EventRefreshFailed, &cur.User, outcome(err))
		m.endGeneration(ctx, gen, "refresh_failed")
		return auth.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, err)
	}

	doc := &persisted{User: cur.User, Tokens: tokens}

	m.mu.Lock()
	if m.generation != gen || m.current == nil {
		m.mu.Unlock()
		return auth.TokenPair{}, apperrors.ErrNotAuthenticated
	}
	m.stopTimerLocked()
	m.generation++
	m.current = doc
	m.scheduleLocked()
	saveErr := m.vault.Save(ctx, doc)
	m.mu.Unlock()

	m.log.LogSessionEvent(ctx, string(audit.EventTokenRefreshed), cur.User.ID, map[string]interface{}{
		"access_expires": tokens.AccessTokenExpires,
	})
	m.publish(ctx, audit.EventTokenRefreshed, &cur.User, "")

	if saveErr != nil {
		return tokens, apperrors.Storage("persist refreshed session", saveErr)
	}
	return tokens, nil
}

// Logout ends the session: best-effort backend logout, storage cleared, timers
// stopped, in-flight calls aborted. force also purges the read cache and runs the
// forced-logout hooks.
func (m *Manager) Logout(ctx context.Context, force bool) error {
	return m.logout(ctx, force, true, audit.EventLoggedOut, "user")
}

// HandleUnauthorized is called by the API layer on 401/403
func (m *Manager) HandleUnauthorized(ctx context.Context, err error) {
	_ = m.logout(ctx, true, false, audit.EventSessionExpired, "unauthorized")

	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) expire(ctx context.Context, reason string) {
	if err := m.logout(ctx, true, false, audit.EventSessionExpired, reason); err != nil {
		m.log.ErrorWithContext(ctx, "Session cleanup failed", err, map[string]interface{}{"reason": reason})
	}
}

// endGeneration expires the session only if it is still the one that failed
func (m *Manager) endGeneration(ctx context.Context, gen uint64, reason string) {
	m.mu.Lock()
	same := m.generation == gen
	m.mu.Unlock()
	if same {
		m.expire(ctx, reason)
	}
}

func (m *Manager) logout(ctx context.Context, force, notifyBackend bool, event audit.EventType, reason string) error {
	// cleanup must outlive the in-flight calls it cancels
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	cur := m.current
	m.stopTimerLocked()
	m.generation++
	m.current = nil
	m.lastActivity = time.Time{}
	m.mfaPending = false

	var errs []error
	if err := m.vault.Clear(ctx); err != nil {
		errs = append(errs, apperrors.Storage("clear session", err))
	}
	if err := m.store.Delete(ctx, constants.STORAGE_KEY_ACTIVITY); err != nil {
		errs = append(errs, apperrors.Storage("clear activity", err))
	}
	calls := m.calls
	var hooks []func()
	if force {
		hooks = append(hooks, m.hooks...)
	}
	m.mu.Unlock()

	if notifyBackend && cur != nil {
		if err := m.authn.Logout(ctx, cur.Tokens.AccessToken, cur.Tokens.RefreshToken); err != nil {
			m.log.WithError(err).WarnContext(ctx, "Backend logout failed")
		}
	}

	if calls != nil {
		calls.CancelInFlight()
	}

	if force {
		if m.cache != nil {
			if err := m.cache.Clear(ctx, constants.CachePrefixes...); err != nil {
				errs = append(errs, apperrors.Storage("purge cache", err))
			} else if err := m.store.Delete(ctx, constants.STORAGE_KEY_CACHE_OWNER); err != nil {
				errs = append(errs, apperrors.Storage("clear cache owner", err))
			}
		}
		for _, hook := range hooks {
			hook()
		}
	}

	if cur != nil {
		m.log.LogSessionEvent(ctx, string(event), cur.User.ID, map[string]interface{}{
			"reason": reason,
			"forced": force,
		})
		m.publish(ctx, event, &cur.User, reason)
	}

	return errors.Join(errs...)
}

// ValidateSession reports whether a usable session exists, ending it when idle too
// long or past its refresh expiry. An expired access token costs one refresh.
func (m *Manager) ValidateSession(ctx context.Context) bool {
	m.mu.Lock()
	cur := m.current
	last := m.lastActivity
	m.mu.Unlock()

	if cur == nil {
		return false
	}

	now := m.clock.Now()
	if m.idle(cur.User, last, now) {
		m.expire(ctx, "idle_timeout")
		return false
	}
	if cur.Tokens.RefreshExpired(now) {
		m.expire(ctx, "refresh_token_expired")
		return false
	}
	if cur.Tokens.AccessExpired(now) {
		_, err := m.refreshIfStale(ctx, cur.Tokens.AccessToken)
		return err == nil || (errors.Is(err, apperrors.ErrStorage) && !errors.Is(err, apperrors.ErrSessionExpired))
	}
	return true
}

// AccessToken returns a usable access token, refreshing first when it has expired
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	cur := m.current
	last := m.lastActivity
	m.mu.Unlock()

	if cur == nil {
		return "", apperrors.ErrNotAuthenticated
	}

	now := m.clock.Now()
	if m.idle(cur.User, last, now) {
		m.expire(ctx, "idle_timeout")
		return "", apperrors.ErrSessionExpired
	}
	if !cur.Tokens.AccessExpired(now) {
		return cur.Tokens.AccessToken, nil
	}

	tokens, err := m.refreshIfStale(ctx, cur.Tokens.AccessToken)
	if err != nil && (!errors.Is(err, apperrors.ErrStorage) || tokens.AccessToken == "") {
		return "", err
	}
	return tokens.AccessToken, nil
}

// RecordActivity stamps user activity for the idle timeout
func (m *Manager) RecordActivity(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	now := m.clock.Now()
	if err := m.writeActivity(ctx, now); err != nil {
		return apperrors.Storage("record activity", err)
	}
	m.lastActivity = now
	return nil
}

// Restore hydrates the session from storage. It reports whether a session was found;
// callers should follow with ValidateSession.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	var doc persisted
	err := m.vault.Load(ctx, &doc)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	case errors.Is(err, storage.ErrCorrupted):
		m.log.WarnContext(ctx, "Discarding unreadable session")
		if cerr := m.vault.Clear(ctx); cerr != nil {
			return false, apperrors.Storage("discard session", cerr)
		}
		return false, nil
	case err != nil:
		return false, apperrors.Storage("load session", err)
	}

	last, err := m.readActivity(ctx)
	if err != nil {
		return false, apperrors.Storage("load activity", err)
	}

	m.mu.Lock()
	m.stopTimerLocked()
	m.generation++
	m.current = &doc
	m.lastActivity = last
	m.scheduleLocked()
	m.mu.Unlock()

	return true, nil
}

// State returns a copy of the current session state
func (m *Manager) State() AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Close stops the refresh timer without touching the session
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
}

func (m *Manager) stateLocked() AuthState {
	state := AuthState{
		Error:      m.lastErr,
		MFAPending: m.mfaPending,
	}
	if m.current == nil {
		return state
	}

	user := m.current.User
	tokens := m.current.Tokens
	state.IsAuthenticated = true
	state.User = &user
	state.Tokens = &tokens
	state.SessionExpiresAt = tokens.RefreshTokenExpires
	return state
}

func (m *Manager) scheduleLocked() {
	if m.current == nil {
		return
	}
	delay := m.current.Tokens.AccessTokenExpires.Sub(m.clock.Now()) - m.opts.RefreshBuffer
	if delay < 0 {
		delay = 0
	}
	gen := m.generation
	m.timer = m.clock.AfterFunc(delay, func() { m.onTimer(gen) })
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) onTimer(gen uint64) {
	m.mu.Lock()
	stale := gen != m.generation || m.current == nil
	m.mu.Unlock()
	if stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timerRefreshBudget)
	defer cancel()
	if _, err := m.Refresh(ctx); err != nil {
		m.log.WithError(err).WarnContext(ctx, "Scheduled token refresh failed")
	}
}

func (m *Manager) idle(user auth.User, last, now time.Time) bool {
	timeout := user.IdleTimeout()
	if timeout <= 0 {
		timeout = m.opts.IdleTimeout
	}
	if timeout <= 0 {
		return false
	}
	return last.IsZero() || now.Sub(last) > timeout
}

func (m *Manager) writeActivity(ctx context.Context, at time.Time) error {
	return m.store.Set(ctx, constants.STORAGE_KEY_ACTIVITY, []byte(strconv.FormatInt(at.UnixMilli(), 10)))
}

func (m *Manager) readActivity(ctx context.Context) (time.Time, error) {
	raw, err := m.store.Get(ctx, constants.STORAGE_KEY_ACTIVITY)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

func (m *Manager) publish(ctx context.Context, eventType audit.EventType, user *auth.User, reason string) {
	event := audit.NewEvent(eventType, m.clock.Now()).WithDevice(m.opts.DeviceID).WithReason(reason)
	if user != nil {
		event.WithUser(user.ID, user.Email)
	}
	m.audit.Publish(ctx, event)
	m.opts.Metrics.SessionEvent(string(eventType))
}

func outcome(err error) string {
	switch {
	case apperrors.IsAuthorization(err):
		return "unauthorized"
	case apperrors.IsRetryable(err):
		return "transient"
	case errors.Is(err, apperrors.ErrResponseShape):
		return "response_shape"
	default:
		return "error"
	}
}
