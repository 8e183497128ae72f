package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"catalog-admin/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithErrorDetails(w, statusCode, message, nil)
}

func respondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	RespondWithJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:      http.StatusText(statusCode),
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// RespondWithValidationErrors sends a 400 for request bodies that fail
// struct validation.
func RespondWithValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	respondWithErrorDetails(w, http.StatusBadRequest, "validation failed", map[string]interface{}{
		"validation_errors": errs,
	})
}

// StatusFor maps a catalog failure kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrReferenceNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithDomainError renders a service failure. Store failures and
// untyped errors are logged and hidden behind a generic 500.
func RespondWithDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	derr, ok := domain.AsError(err)
	if status == http.StatusInternalServerError || !ok {
		logger.Error("Request failed", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var details map[string]interface{}
	if len(derr.MissingIDs) > 0 {
		details = map[string]interface{}{"missing_ids": derr.MissingIDs}
	}
	if len(derr.Fields) > 0 {
		if details == nil {
			details = map[string]interface{}{}
		}
		details["fields"] = derr.Fields
	}
	respondWithErrorDetails(w, status, derr.Message, details)
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("Panic recovered",
						zap.Any("error", rec),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.Stack("stack"),
					)
					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
