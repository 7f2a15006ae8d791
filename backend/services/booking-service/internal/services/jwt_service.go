package services

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidOAuthState   = errors.New("invalid oauth state")
)

const (
	refreshTokenBytes = 48
	oauthStatePurpose = "avito_oauth"
)

// ---------------------------------------------------------------------
// JWTService interface
// ---------------------------------------------------------------------

type JWTService interface {
	GenerateAccessToken(ctx context.Context, user *models.User) (string, error)
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID, ip string) (*models.RefreshToken, error)

	// RefreshToken rotates: the presented token is removed and a new
	// access/refresh pair is returned.
	RefreshToken(ctx context.Context, refreshTokenString, ip string) (string, string, error)
	Logout(ctx context.Context, refreshTokenString string) error

	// SignOAuthState binds an Avito authorization round-trip to a user.
	SignOAuthState(userID uuid.UUID) (string, error)
	ParseOAuthState(state string) (uuid.UUID, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type jwtService struct {
	privateKey    *rsa.PrivateKey
	stateKey      []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	tokenRepo     repositories.TokenRepository
	userRepo      repositories.UserRepository
}

func NewJWTService(
	cfg *config.Config,
	tokenRepo repositories.TokenRepository,
	userRepo repositories.UserRepository,
) JWTService {
	// State tokens are HMAC-signed so AuthMiddleware, which only accepts
	// RSA, can never mistake one for an access token.
	sum := sha256.Sum256([]byte("oauth-state:" + cfg.EncryptionSecret))
	return &jwtService{
		privateKey:    cfg.RSAPrivateKey,
		stateKey:      sum[:],
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
		tokenRepo:     tokenRepo,
		userRepo:      userRepo,
	}
}

func (j *jwtService) GenerateAccessToken(_ context.Context, user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  middleware.TokenIssuer,
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"exp":  now.Add(j.accessExpiry).Unix(),
		"iat":  now.Unix(),
		"jti":  uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(j.privateKey)
}

func (j *jwtService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID, ip string) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     utils.RandomToken(refreshTokenBytes),
		ExpiresAt: time.Now().Add(j.refreshExpiry),
		CreatedAt: time.Now(),
		IPAddress: ip,
	}
	if err := j.tokenRepo.CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

func (j *jwtService) RefreshToken(ctx context.Context, refreshTokenString, ip string) (string, string, error) {
	if refreshTokenString == "" {
		return "", "", ErrInvalidRefreshToken
	}

	oldToken, err := j.tokenRepo.GetRefreshToken(ctx, refreshTokenString)
	if err != nil {
		return "", "", err
	}
	if oldToken == nil || oldToken.Revoked {
		return "", "", ErrInvalidRefreshToken
	}
	if oldToken.IsExpired() {
		return "", "", ErrRefreshTokenExpired
	}

	if err := j.tokenRepo.RemoveRefreshToken(ctx, oldToken.ID); err != nil {
		return "", "", fmt.Errorf("remove old refresh token: %w", err)
	}

	// The role may have changed since the old access token was issued.
	user, err := j.userRepo.GetByID(ctx, oldToken.UserID)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", ErrInvalidRefreshToken
	}

	access, err := j.GenerateAccessToken(ctx, user)
	if err != nil {
		return "", "", err
	}
	rt, err := j.GenerateRefreshToken(ctx, user.ID, ip)
	if err != nil {
		return "", "", err
	}
	return access, rt.Token, nil
}

func (j *jwtService) Logout(ctx context.Context, refreshTokenString string) error {
	if refreshTokenString == "" {
		return nil
	}
	oldToken, err := j.tokenRepo.GetRefreshToken(ctx, refreshTokenString)
	if err != nil {
		return err
	}
	if oldToken == nil {
		return nil
	}
	return j.tokenRepo.RemoveRefreshToken(ctx, oldToken.ID)
}

func (j *jwtService) SignOAuthState(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":     middleware.TokenIssuer,
		"sub":     userID.String(),
		"purpose": oauthStatePurpose,
		"exp":     now.Add(constants.OAuthStateTTL).Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.stateKey)
}

func (j *jwtService) ParseOAuthState(state string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (any, error) {
		return j.stateKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(middleware.TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidOAuthState, err)
	}
	if p, _ := claims["purpose"].(string); p != oauthStatePurpose {
		return uuid.Nil, fmt.Errorf("%w: wrong purpose", ErrInvalidOAuthState)
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidOAuthState)
	}
	return id, nil
}
