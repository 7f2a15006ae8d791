// backend/shared/go-utils/errors.go
package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPhone       = errors.New("invalid_phone")
	ErrEmailExists        = errors.New("email_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")

	// Booking writes
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrBookingConflict  = errors.New("booking_conflict")
	ErrRoomNotReady     = errors.New("room_not_ready")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For external service failures (Avito, SendGrid, Twilio)
	ErrExternalServiceFailure = errors.New("external_service_failure")
	ErrAvitoNotConnected      = errors.New("avito_not_connected")

	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	ErrNoRowsUpdated = errors.New("no_rows_updated")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError is shorthand for services building an AppError inline.
func NewAppError(status int, code, msg string, err error) *AppError {
	return &AppError{StatusCode: status, Code: code, Message: msg, Err: err}
}

// HandleAppError centralizes responding to AppErrors. Plain sentinel
// errors are mapped to their usual status before falling back to 500.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details, appErr.Err)
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		RespondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Resource not found", nil, err)
	case errors.Is(err, ErrForbidden):
		RespondErrorWithCode(w, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil, err)
	case errors.Is(err, ErrRowVersionConflict):
		RespondErrorWithCode(w, http.StatusConflict, ErrCodeRowVersionConflict, "Record was modified by someone else", nil, err)
	case errors.Is(err, ErrBookingConflict):
		RespondErrorWithCode(w, http.StatusConflict, ErrCodeBookingConflict, "Booking overlaps an existing booking", nil, err)
	case errors.Is(err, ErrRateLimitExceeded):
		RespondErrorWithCode(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Too many requests, try again later", nil, err)
	case errors.Is(err, ErrExternalServiceFailure):
		RespondErrorWithCode(w, http.StatusBadGateway, ErrCodeExternalServiceFailure, "External service failure", nil, err)
	default:
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
