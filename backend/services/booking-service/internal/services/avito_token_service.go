package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	internal_utils "github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils/avito"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"golang.org/x/oauth2"
)

// AvitoAPI is the part of *avito.Client the services use.
type AvitoAPI interface {
	GetSelf(ctx context.Context, accessToken string) (*avito.Self, error)
	GetItem(ctx context.Context, accessToken string, userID, itemID int64) (*avito.Item, error)
	ListBookings(ctx context.Context, accessToken string, userID, itemID int64, from, to time.Time) ([]avito.Booking, error)
	CreateBooking(ctx context.Context, accessToken string, userID, itemID int64, req avito.CreateBookingRequest) error
	Exchange(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*oauth2.Token, error)
}

// AvitoTokenService owns the per-owner Avito credentials. Tokens are
// encrypted before they reach the repository and decrypted right before use.
type AvitoTokenService interface {
	AuthorizeURL(ctx context.Context, userID uuid.UUID) (string, error)
	HandleCallback(ctx context.Context, state, code string) (uuid.UUID, error)
	Connect(ctx context.Context, userID uuid.UUID, code string) (*models.AvitoCredential, error)
	Status(ctx context.Context, userID uuid.UUID) (*dtos.AvitoConnectionResponse, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error

	// AccessToken returns a usable plaintext token, refreshing it first
	// when it is about to expire.
	AccessToken(ctx context.Context, userID uuid.UUID) (string, *models.AvitoCredential, error)
	GetItem(ctx context.Context, userID uuid.UUID, itemID int64) (*avito.Item, error)
}

type avitoTokenService struct {
	cfg      *config.Config
	oauth    *oauth2.Config
	api      AvitoAPI
	credRepo repositories.AvitoCredentialRepository
	jwt      JWTService
	now      func() time.Time
}

func NewAvitoTokenService(
	cfg *config.Config,
	api AvitoAPI,
	credRepo repositories.AvitoCredentialRepository,
	jwt JWTService,
) AvitoTokenService {
	return &avitoTokenService{
		cfg: cfg,
		oauth: avito.NewOAuthConfig(
			cfg.AvitoClientID,
			cfg.AvitoClientSecret,
			cfg.AvitoAPIBaseURL,
			cfg.AvitoAuthURL,
			cfg.AppUrl+constants.AvitoCallbackPath,
		),
		api:      api,
		credRepo: credRepo,
		jwt:      jwt,
		now:      time.Now,
	}
}

func (s *avitoTokenService) enabled() error {
	if s.cfg.AvitoEnabled() {
		return nil
	}
	return utils.NewAppError(
		http.StatusServiceUnavailable, utils.ErrCodeExternalServiceFailure,
		"Avito integration is not configured", utils.ErrExternalServiceFailure,
	)
}

func (s *avitoTokenService) AuthorizeURL(_ context.Context, userID uuid.UUID) (string, error) {
	if err := s.enabled(); err != nil {
		return "", err
	}
	state, err := s.jwt.SignOAuthState(userID)
	if err != nil {
		return "", err
	}
	return avito.AuthCodeURL(s.oauth, state), nil
}

func (s *avitoTokenService) HandleCallback(ctx context.Context, state, code string) (uuid.UUID, error) {
	userID, err := s.jwt.ParseOAuthState(state)
	if err != nil {
		return uuid.Nil, utils.NewAppError(
			http.StatusBadRequest, internal_utils.ErrCodeInvalidOAuthState, "Invalid or expired authorization state", err,
		)
	}
	if _, err := s.Connect(ctx, userID, code); err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

func (s *avitoTokenService) Connect(ctx context.Context, userID uuid.UUID, code string) (*models.AvitoCredential, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}
	logger := utils.Logger.WithField("operation", "AvitoConnect").WithField("user_id", userID)

	tok, err := s.api.Exchange(ctx, s.oauth, code)
	if err != nil {
		logger.WithError(err).Warn("avito rejected authorization code")
		return nil, utils.NewAppError(
			http.StatusBadRequest, internal_utils.ErrCodeAvitoUnauthorized, "Avito rejected the authorization code", err,
		)
	}

	self, err := s.api.GetSelf(ctx, tok.AccessToken)
	if err != nil {
		return nil, mapAvitoErr(err)
	}

	cred := &models.AvitoCredential{UserID: userID, AvitoUserID: self.ID}
	if err := s.sealToken(cred, tok, ""); err != nil {
		return nil, err
	}
	if err := s.credRepo.Upsert(ctx, cred); err != nil {
		return nil, err
	}

	logger.WithField("avito_user_id", self.ID).Info("avito account connected")
	return cred, nil
}

func (s *avitoTokenService) Status(ctx context.Context, userID uuid.UUID) (*dtos.AvitoConnectionResponse, error) {
	cred, err := s.credRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return &dtos.AvitoConnectionResponse{Connected: false}, nil
	}
	return &dtos.AvitoConnectionResponse{
		Connected:   true,
		AvitoUserID: &cred.AvitoUserID,
		ExpiresAt:   &cred.ExpiresAt,
		Scope:       cred.Scope,
	}, nil
}

func (s *avitoTokenService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	removed, err := s.credRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if !removed {
		return notConnected()
	}
	utils.Logger.WithField("user_id", userID).Info("avito account disconnected")
	return nil
}

func (s *avitoTokenService) AccessToken(ctx context.Context, userID uuid.UUID) (string, *models.AvitoCredential, error) {
	cred, err := s.credRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if cred == nil {
		return "", nil, notConnected()
	}

	if !cred.Expired(s.now()) {
		access, err := utils.DecryptToken(cred.AccessToken, s.cfg.EncryptionSecret)
		if err != nil {
			return "", nil, fmt.Errorf("decrypt avito access token: %w", err)
		}
		return access, cred, nil
	}

	if err := s.enabled(); err != nil {
		return "", nil, err
	}
	refresh, err := utils.DecryptToken(cred.RefreshToken, s.cfg.EncryptionSecret)
	if err != nil {
		return "", nil, fmt.Errorf("decrypt avito refresh token: %w", err)
	}
	tok, err := s.api.Refresh(ctx, s.oauth, refresh)
	if err != nil {
		utils.Logger.WithError(err).WithField("user_id", userID).Warn("avito token refresh failed")
		return "", nil, utils.NewAppError(
			http.StatusBadGateway, internal_utils.ErrCodeAvitoUnauthorized,
			"Avito session expired; reconnect the account", err,
		)
	}

	// Avito may omit a new refresh token; the old one stays valid then.
	if err := s.sealToken(cred, tok, refresh); err != nil {
		return "", nil, err
	}
	if err := s.credRepo.Upsert(ctx, cred); err != nil {
		return "", nil, err
	}
	return tok.AccessToken, cred, nil
}

func (s *avitoTokenService) GetItem(ctx context.Context, userID uuid.UUID, itemID int64) (*avito.Item, error) {
	access, cred, err := s.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.api.GetItem(ctx, access, cred.AvitoUserID, itemID)
	if err != nil {
		return nil, mapAvitoErr(err)
	}
	return item, nil
}

// sealToken copies tok onto cred with both tokens encrypted.
func (s *avitoTokenService) sealToken(cred *models.AvitoCredential, tok *oauth2.Token, fallbackRefresh string) error {
	access, err := utils.EncryptToken(tok.AccessToken, s.cfg.EncryptionSecret)
	if err != nil {
		return fmt.Errorf("encrypt avito access token: %w", err)
	}
	refresh, err := utils.EncryptToken(utils.FirstNonEmpty(tok.RefreshToken, fallbackRefresh), s.cfg.EncryptionSecret)
	if err != nil {
		return fmt.Errorf("encrypt avito refresh token: %w", err)
	}

	cred.AccessToken = access
	cred.RefreshToken = refresh
	cred.ExpiresAt = tok.Expiry
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = s.now().Add(24 * time.Hour)
	}
	cred.TokenType = utils.FirstNonEmpty(tok.TokenType, "Bearer")
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		cred.Scope = scope
	}
	return nil
}

func notConnected() *utils.AppError {
	return utils.NewAppError(
		http.StatusBadRequest, utils.ErrCodeAvitoNotConnected, "Avito account is not connected", utils.ErrAvitoNotConnected,
	)
}

// mapAvitoErr turns avito client errors into responses. Nothing is retried.
func mapAvitoErr(err error) error {
	var (
		unauthorized *avito.UnauthorizedError
		missing      *avito.NotFoundError
		appErr       *utils.AppError
	)
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.As(err, &missing):
		return utils.NewAppError(
			http.StatusNotFound, internal_utils.ErrCodeAvitoItemNotFound, "Listing not found on Avito", err,
		)
	case errors.As(err, &unauthorized):
		return utils.NewAppError(
			http.StatusBadGateway, internal_utils.ErrCodeAvitoUnauthorized, "Avito rejected the stored credentials", err,
		)
	}
	return utils.NewAppError(
		http.StatusBadGateway, utils.ErrCodeExternalServiceFailure, "Avito request failed",
		fmt.Errorf("%w: %v", utils.ErrExternalServiceFailure, err),
	)
}
