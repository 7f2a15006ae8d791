package utils

// Error codes specific to booking-service only.
const (
	ErrCodeAvitoItemNotFound = "avito_item_not_found"
	ErrCodeAvitoUnauthorized = "avito_unauthorized"
	ErrCodeInvalidOAuthState = "invalid_oauth_state"
	ErrCodeInvalidDateRange  = "invalid_date_range"
)
