package dtos

import "time"

// SaveAvitoTokenRequest completes the OAuth flow from the front end when it
// received the redirect itself.
type SaveAvitoTokenRequest struct {
	Code string `json:"code" validate:"required"`
}

type AvitoConnectionResponse struct {
	Connected   bool       `json:"connected"`
	AvitoUserID *int64     `json:"avito_user_id,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Scope       string     `json:"scope,omitempty"`
}

type AvitoAuthorizeResponse struct {
	URL string `json:"url"`
}

// AvitoSyncRequest bounds the sync window; both default from config.
type AvitoSyncRequest struct {
	From *string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To   *string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type AvitoSyncReport struct {
	Rooms    int `json:"rooms"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

type AvitoItemResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}
