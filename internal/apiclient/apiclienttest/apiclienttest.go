// Package apiclienttest wires an apiclient.Client to an httptest backend for
// service tests.
package apiclienttest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"refactortrack/internal/apiclient"
	"refactortrack/internal/shared/utils/response"
	"refactortrack/pkg/cache"
	"refactortrack/pkg/clock"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/retry"
	"refactortrack/pkg/storage"
)

// Request is a recorded backend call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Backend is a recording test server with a client pointed at it
type Backend struct {
	Client *apiclient.Client
	Cache  *cache.Cache
	Store  *storage.Memory
	Clock  *clock.Fake

	mu       sync.Mutex
	requests []Request
}

// New starts handler behind a recording server. The client retries without
// sleeping and authenticates with a fixed token.
func New(t testing.TB, handler http.Handler) *Backend {
	t.Helper()

	b := &Backend{
		Store: storage.NewMemory(),
		Clock: clock.NewFake(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		b.mu.Unlock()

		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	b.Cache = cache.New(b.Store, cache.WithClock(b.Clock))

	c, err := apiclient.New(apiclient.Options{
		BaseURL: srv.URL + "/api/v1",
		Timeout: 2 * time.Second,
		Retry: retry.Policy{
			Attempts:  3,
			BaseDelay: time.Millisecond,
			MaxDelay:  time.Millisecond,
			Sleep:     func(context.Context, time.Duration) error { return nil },
		},
		Logger: logger.Discard(),
	}, b.Cache)
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	c.SetTokenSource(StaticToken("test-access-token"))
	b.Client = c
	return b
}

// Requests returns a copy of the recorded calls
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Calls counts recorded calls, optionally only those with the given method
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, r := range b.requests {
		if method == "" || r.Method == method {
			n++
		}
	}
	return n
}

// Last returns the most recent call
func (b *Backend) Last() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Request{}
	}
	return b.requests[len(b.requests)-1]
}

// StaticToken is a TokenSource that never expires
type StaticToken string

func (s StaticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

func (StaticToken) HandleUnauthorized(context.Context, error) {}

// WriteEnvelope answers with the backend's standard envelope
func WriteEnvelope(w http.ResponseWriter, code int, data any) {
	status := "success"
	if code >= http.StatusBadRequest {
		status = "error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response.StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    http.StatusText(code),
		Data:       data,
	})
}
