package devserver

import (
	"errors"
	"net/http"
	"strings"

	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes and validates a request body, answering 400 on failure
func (s *Server) bindJSON(ctx *gin.Context, subject string, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return false
	}
	return s.check(ctx, subject, req)
}

// bindQuery decodes the query string. normalize runs before validation.
func (s *Server) bindQuery(ctx *gin.Context, subject string, req any, normalize func()) bool {
	if err := ctx.ShouldBindQuery(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return false
	}
	if normalize != nil {
		normalize()
	}
	return s.check(ctx, subject, req)
}

func (s *Server) check(ctx *gin.Context, subject string, req any) bool {
	if err := s.validate.Struct(req); err != nil {
		var verr *apperrors.ValidationError
		if errors.As(apperrors.FromValidator(subject, err), &verr) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, verr.Fields)
		} else {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		}
		return false
	}
	return true
}

// respondStoreError maps store errors onto status codes
func (s *Server) respondStoreError(ctx *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		s.log.LogHTTPError(ctx, err, status)
	}
	response.RespondJSON(ctx, "error", status, message, nil, err.Error())
}

// splitCSV expands comma-joined query values
func splitCSV(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
