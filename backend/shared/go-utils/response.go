// backend/shared/go-utils/response.go
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload         = "invalid_payload"
	ErrCodeValidation             = "validation_error"
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeInvalidCredentials     = "invalid_credentials"
	ErrCodeInternal               = "internal_server_error"
	ErrCodeNotFound               = "not_found"
	ErrCodeMethodNotAllowed       = "method_not_allowed"
	ErrCodeConflict               = "conflict"
	ErrCodeEmailExists            = "email_exists"
	ErrCodeBookingConflict        = "booking_conflict"
	ErrCodeRateLimitExceeded      = "rate_limit_exceeded"
	ErrCodeRoomNotReady           = "room_not_ready"
	ErrCodeInvalidPhone           = "invalid_phone"
	ErrCodeRowVersionConflict     = "row_version_conflict"
	ErrCodeAvitoNotConnected      = "avito_not_connected"
	ErrCodeExternalServiceFailure = "external_service_failure"
)

// ErrorResponse is the body of every non-2xx response. `error` holds the
// human-readable message; `code` is stable for clients to branch on and
// `details` optionally carries the conflicting or current record.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// MessageResponse is returned by endpoints that have no record to echo back.
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondErrorWithCode builds a JSON error response with a standard
// code and message. The optional `details` is included if non-nil.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errBody := ErrorResponse{
		Error: publicMessage,
		Code:  errorCode,
	}
	if details != nil {
		errBody.Details = details
	}
	_ = json.NewEncoder(w).Encode(errBody)

	fields := logrus.Fields{"status": status, "code": errorCode}
	if len(devErrs) > 0 && devErrs[0] != nil {
		fields["error"] = devErrs[0].Error()
	}
	entry := Logger.WithFields(fields)
	if status >= http.StatusInternalServerError {
		entry.Error(publicMessage)
	} else {
		entry.Warn(publicMessage)
	}
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondWithMessage is RespondWithJSON for a bare {message} body.
func RespondWithMessage(w http.ResponseWriter, status int, msg string) {
	RespondWithJSON(w, status, MessageResponse{Message: msg})
}
