package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/utils/response"
	"refactortrack/internal/shared/validation"
	"refactortrack/pkg/cache"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/metrics"
	"refactortrack/pkg/ratelimit"
	"refactortrack/pkg/retry"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderDeviceID  = "X-Device-ID"

	maxResponseBytes = 10 << 20
)

// TokenSource supplies bearer tokens and is told when the backend rejects them
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	HandleUnauthorized(ctx context.Context, err error)
}

// Options configures a Client
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Retry     retry.Policy
	UserAgent string

	HTTPClient *http.Client
	Logger     *logger.Logger
	Metrics    *metrics.Client
	Limiter    *ratelimit.Limiter
}

// Client is the API request layer: validate, read cache, call with retry, check the
// response shape, write cache. Writes invalidate by resource prefix.
type Client struct {
	base      *url.URL
	http      *http.Client
	cache     *cache.Cache
	timeout   time.Duration
	policy    retry.Policy
	userAgent string
	validate  *validator.Validate
	log       *logger.Logger
	metrics   *metrics.Client
	limiter   *ratelimit.Limiter

	mu       sync.Mutex
	tokens   TokenSource
	deviceID string
	inflight map[uint64]context.CancelFunc
	nextID   uint64
}

// New creates a client over the process-wide cache
func New(opts Options, c *cache.Cache) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	policy := opts.Retry
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	return &Client{
		base:      base,
		http:      httpClient,
		cache:     c,
		timeout:   opts.Timeout,
		policy:    policy,
		userAgent: opts.UserAgent,
		validate:  validation.New(),
		log:       log.WithComponent("apiclient"),
		metrics:   opts.Metrics,
		limiter:   opts.Limiter,
		inflight:  make(map[uint64]context.CancelFunc),
	}, nil
}

// SetTokenSource wires the session manager in after construction
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// SetDeviceID sets the value sent as X-Device-ID
func (c *Client) SetDeviceID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deviceID = id
}

// Cache returns the read cache the client writes through
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// CancelInFlight aborts every outstanding call. Cache state is left untouched.
func (c *Client) CancelInFlight() {
	c.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(c.inflight))
	for id, cancel := range c.inflight {
		cancels = append(cancels, cancel)
		delete(c.inflight, id)
	}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// InFlight reports the number of outstanding calls
func (c *Client) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

func (c *Client) track(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.inflight[id] = cancel
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
		cancel()
	}
}

func (c *Client) tokenSource() TokenSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

// call describes one logical request; retries reuse it
type call struct {
	method     string
	path       string
	query      url.Values
	body       []byte
	public     bool
	token      string
	idempotent bool
	namespace  string
}

func (cl call) op() string {
	return cl.method + " " + cl.path
}

// execute performs cl with retry and returns the body of the 2xx answer
func (c *Client) execute(ctx context.Context, cl call) ([]byte, error) {
	ctx, done := c.track(ctx)
	defer done()

	token := cl.token
	if token == "" && !cl.public {
		ts := c.tokenSource()
		if ts == nil {
			return nil, apperrors.ErrNotAuthenticated
		}
		t, err := ts.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		token = t
	}

	policy := c.policy
	if !cl.idempotent {
		policy.Attempts = 1
	}
	policy.Retryable = apperrors.IsRetryable
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.log.LogRetry(ctx, cl.op(), attempt, delay, err)
		c.metrics.Retry(cl.namespace)
	}

	start := time.Now()
	var body []byte
	err := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		b, err := c.roundTrip(ctx, cl, token)
		body = b
		return err
	})

	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
	}
	c.metrics.ObserveRequest(cl.method, cl.namespace, outcome, time.Since(start))

	if err != nil && cl.token == "" && !cl.public && apperrors.IsAuthorization(err) {
		if ts := c.tokenSource(); ts != nil {
			// logout cancels in-flight calls, this one included
			ts.HandleUnauthorized(context.WithoutCancel(ctx), err)
		}
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, cl call, token string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, ratelimit.Classify(cl.method, cl.path)); err != nil {
		return nil, err
	}

	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if cl.body != nil {
		reader = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, cl.method, c.resolve(cl.path, cl.query), reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", cl.op(), err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if id := c.device(); id != "" {
		req.Header.Set(HeaderDeviceID, id)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.WithRequestID(requestID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		terr := &apperrors.TransportError{Method: cl.method, Path: cl.path, Err: err}
		log.LogAPIRequest(ctx, cl.method, cl.path, 0, time.Since(start), terr)
		return nil, terr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &apperrors.TransportError{Method: cl.method, Path: cl.path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := newHTTPError(cl, resp, data)
		log.LogAPIRequest(ctx, cl.method, cl.path, resp.StatusCode, time.Since(start), herr)
		return nil, herr
	}

	log.LogAPIRequest(ctx, cl.method, cl.path, resp.StatusCode, time.Since(start), nil)
	return data, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func newHTTPError(cl call, resp *http.Response, body []byte) *apperrors.HTTPError {
	herr := &apperrors.HTTPError{
		Method:     cl.method,
		Path:       cl.path,
		StatusCode: resp.StatusCode,
		Wait:       parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
	if env, err := response.Decode(body); err == nil {
		herr.Message = env.Message
		herr.Errors = env.Errors
	}
	return herr
}

// parseRetryAfter accepts delta-seconds or an HTTP date
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// decode unwraps the envelope into out and validates it. Any mismatch is a shape error.
func (c *Client) decode(body []byte, out any) error {
	env, err := response.Decode(body)
	if err != nil {
		return apperrors.ResponseShape("envelope", err)
	}
	if !env.Succeeded() {
		return apperrors.ResponseShape("envelope", fmt.Errorf("status %q on a 2xx answer", env.Status))
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return apperrors.ResponseShape("data", errors.New("missing"))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.ResponseShape("data", err)
	}
	if err := validation.Value(c.validate, out); err != nil {
		return apperrors.ResponseShape("data", err)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case apperrors.IsAuthorization(err):
		return "unauthorized"
	case apperrors.IsRetryable(err):
		return "transient"
	default:
		return "error"
	}
}
