package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Error kinds. Concrete errors wrap or match one of these.
var (
	ErrValidation           = errors.New("validation failed")
	ErrTransient            = errors.New("transient failure")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrResponseShape        = errors.New("unexpected response shape")
	ErrStorage              = errors.New("storage failure")
	ErrNotFound             = errors.New("resource not found")
	ErrConflict             = errors.New("resource conflict")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrSessionExpired       = errors.New("session expired")
	ErrNotAuthenticated     = errors.New("not authenticated")
)

// HTTPError is a non-2xx answer from the backend
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Errors     json.RawMessage
	Wait       time.Duration
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is maps the status code onto an error kind
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrTransient:
		return IsTransientStatus(e.StatusCode)
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// RetryAfter returns the server's Retry-After hint, zero when absent
func (e *HTTPError) RetryAfter() time.Duration {
	return e.Wait
}

// IsTransientStatus reports whether a status code is on the retry allow-list
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// TransportError is a failure to get any HTTP answer (dial, reset, timeout)
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransient }

// ValidationError lists the offending fields of a rejected payload
type ValidationError struct {
	Subject string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: invalid %s", ErrValidation, e.Subject)
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return fmt.Sprintf("%s: invalid %s: %s", ErrValidation, e.Subject, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// MissingID rejects a call addressed to an empty resource id
func MissingID(subject string) error {
	return &ValidationError{Subject: subject, Fields: map[string]string{"id": "is required"}}
}

// FromValidator converts validator output into a ValidationError. Other errors are
// wrapped as validation failures without field detail.
func FromValidator(subject string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Subject: subject, Fields: map[string]string{"_": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return &ValidationError{Subject: subject, Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "uuid", "uuid4":
		return "must be a UUID"
	case "gtefield", "gtfield":
		return "must not be before " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// Storage wraps a storage failure so it matches ErrStorage and the original cause
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// ResponseShape wraps a payload that does not match its schema
func ResponseShape(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrResponseShape, what, err)
}

// IsRetryable reports whether err is on the transient allow-list
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsAuthorization reports 401/403 answers
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// UserMessage returns a message safe to show an end user and whether retrying may help.
// Internal detail never leaks through it.
func UserMessage(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, ErrAuthenticationFailed):
		return "Invalid email or password.", false
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrUnauthorized):
		return "Your session has ended. Please sign in again.", false
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to perform this action.", false
	case errors.Is(err, ErrValidation):
		return "Some of the information provided is invalid.", false
	case errors.Is(err, ErrNotFound):
		return "The requested item could not be found.", false
	case errors.Is(err, ErrConflict):
		return "This item was changed by someone else. Reload and try again.", true
	case errors.Is(err, ErrTransient):
		return "The service is temporarily unavailable. Please try again.", true
	case errors.Is(err, ErrStorage):
		return "Local storage is unavailable or full.", false
	default:
		return "Something went wrong. Please try again.", true
	}
}
