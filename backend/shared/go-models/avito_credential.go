// go-models/avito_credential.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AvitoCredential is one row of avito_access_tokens. The token fields hold
// ciphertext while stored; services decrypt them right before use.
type AvitoCredential struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	TokenType    string    `json:"token_type"`
	AvitoUserID  int64     `json:"avito_user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired treats tokens within a minute of expiry as already expired.
func (c *AvitoCredential) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now.Add(time.Minute))
}
