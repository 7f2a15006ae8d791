package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-testhelpers/memrepo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWT(t *testing.T) (JWTService, *memrepo.Store) {
	store := memrepo.NewStore()
	return NewJWTService(testConfig(t), store.Tokens(), store.Users()), store
}

func TestAccessTokenValidatesWithMiddleware(t *testing.T) {
	svc, store := newJWT(t)
	user := seedUser(t, store, models.RoleCleaner, nil)

	raw, err := svc.GenerateAccessToken(context.Background(), user)
	require.NoError(t, err)

	tok, err := middleware.ValidateToken(raw, &testConfig(t).RSAPrivateKey.PublicKey)
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, "cleaner", claims["role"])
}

func TestRefreshTokenRotates(t *testing.T) {
	ctx := context.Background()
	svc, store := newJWT(t)
	user := seedUser(t, store, models.RoleClient, nil)

	rt, err := svc.GenerateRefreshToken(ctx, user.ID, "127.0.0.1")
	require.NoError(t, err)

	access, next, err := svc.RefreshToken(ctx, rt.Token, "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, rt.Token, next)

	_, _, err = svc.RefreshToken(ctx, rt.Token, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "old token is single use")

	_, _, err = svc.RefreshToken(ctx, next, "127.0.0.1")
	assert.NoError(t, err)
}

func TestRefreshTokenPicksUpRoleChange(t *testing.T) {
	ctx := context.Background()
	svc, store := newJWT(t)
	user := seedUser(t, store, models.RoleClient, nil)
	rt, err := svc.GenerateRefreshToken(ctx, user.ID, "")
	require.NoError(t, err)

	user.Role = models.RoleAdmin
	require.NoError(t, store.Users().UpdateExpected(ctx, user, user.RowVersion))

	access, _, err := svc.RefreshToken(ctx, rt.Token, "")
	require.NoError(t, err)
	tok, err := middleware.ValidateToken(access, &testConfig(t).RSAPrivateKey.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "admin", tok.Claims.(jwt.MapClaims)["role"])
}

func TestRefreshTokenExpired(t *testing.T) {
	ctx := context.Background()
	svc, store := newJWT(t)
	user := seedUser(t, store, models.RoleClient, nil)

	require.NoError(t, store.Tokens().CreateRefreshToken(ctx, &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, _, err := svc.RefreshToken(ctx, "stale", "")
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)

	_, _, err = svc.RefreshToken(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogoutRemovesToken(t *testing.T) {
	ctx := context.Background()
	svc, store := newJWT(t)
	user := seedUser(t, store, models.RoleClient, nil)
	rt, err := svc.GenerateRefreshToken(ctx, user.ID, "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, rt.Token))
	require.NoError(t, svc.Logout(ctx, rt.Token), "second logout is a no-op")

	got, err := store.Tokens().GetRefreshToken(ctx, rt.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOAuthState(t *testing.T) {
	svc, store := newJWT(t)
	user := seedUser(t, store, models.RoleClient, nil)

	state, err := svc.SignOAuthState(user.ID)
	require.NoError(t, err)

	id, err := svc.ParseOAuthState(state)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	t.Run("access token is not a state", func(t *testing.T) {
		access, err := svc.GenerateAccessToken(context.Background(), user)
		require.NoError(t, err)
		_, err = svc.ParseOAuthState(access)
		assert.ErrorIs(t, err, ErrInvalidOAuthState)
	})

	t.Run("state is not an access token", func(t *testing.T) {
		_, err := middleware.ValidateToken(state, &testConfig(t).RSAPrivateKey.PublicKey)
		assert.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := svc.ParseOAuthState(state + "x")
		assert.ErrorIs(t, err, ErrInvalidOAuthState)
	})
}
