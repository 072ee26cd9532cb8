package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"refactortrack/pkg/storage"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorKinds(t *testing.T) {
	tests := []struct {
		code int
		kind error
	}{
		{http.StatusRequestTimeout, ErrTransient},
		{http.StatusTooManyRequests, ErrTransient},
		{http.StatusBadGateway, ErrTransient},
		{http.StatusServiceUnavailable, ErrTransient},
		{http.StatusGatewayTimeout, ErrTransient},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusBadRequest, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := fmt.Errorf("get clients: %w", &HTTPError{Method: "GET", Path: "/clients", StatusCode: tt.code})
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	internal := &HTTPError{StatusCode: http.StatusInternalServerError}
	assert.False(t, IsRetryable(internal), "500 is not on the allow-list")
	assert.False(t, IsAuthorization(internal))
}

func TestTransportErrorIsTransient(t *testing.T) {
	err := &TransportError{Method: "GET", Path: "/clients", Err: context.DeadlineExceeded}
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type creds struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func TestFromValidator(t *testing.T) {
	v := validator.New()
	err := FromValidator("credentials", v.Struct(creds{Email: "nope", Password: "short"}))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "must be a valid email", verr.Fields["Email"])
	assert.Equal(t, "must be at least 8", verr.Fields["Password"])
	assert.Nil(t, FromValidator("credentials", nil))
}

func TestStorageWrapKeepsCause(t *testing.T) {
	err := Storage("cache set", storage.ErrQuotaExceeded)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
}

func TestUserMessageHidesDetail(t *testing.T) {
	err := &HTTPError{Method: "GET", Path: "/clients", StatusCode: http.StatusServiceUnavailable, Message: "pg pool exhausted"}
	msg, retry := UserMessage(err)
	assert.True(t, retry)
	assert.NotContains(t, msg, "pg pool")

	msg, retry = UserMessage(errors.Join(ErrAuthenticationFailed, ErrValidation))
	assert.Equal(t, "Invalid email or password.", msg)
	assert.False(t, retry)
}
