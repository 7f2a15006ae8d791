package testhelpers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/stretchr/testify/require"
)

// CreateAccessJWT signs an access token for user the same way the service does.
func (h *TestHelper) CreateAccessJWT(user *models.User) string {
	return h.signAccessJWT(user, time.Now().Add(15*time.Minute))
}

// CreateExpiredAccessJWT returns a token that expired a minute ago.
func (h *TestHelper) CreateExpiredAccessJWT(user *models.User) string {
	return h.signAccessJWT(user, time.Now().Add(-time.Minute))
}

func (h *TestHelper) signAccessJWT(user *models.User, exp time.Time) string {
	claims := jwt.MapClaims{
		"iss":  middleware.TokenIssuer,
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  time.Now().Unix(),
		"exp":  exp.Unix(),
		"jti":  uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(h.PrivateKey)
	require.NoError(h.T, err, "Failed to sign test access JWT")
	return signed
}
