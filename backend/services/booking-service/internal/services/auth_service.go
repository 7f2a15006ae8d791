package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

const passwordResetTokenBytes = 32

// ---------------------------------------------------------------------
// AuthService interface
// ---------------------------------------------------------------------

type AuthService interface {
	Register(ctx context.Context, req dtos.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password, ip string) (*models.User, string, string, error)
	RefreshToken(ctx context.Context, refreshToken, ip string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error

	// RequestPasswordReset succeeds for unknown emails too, so the endpoint
	// cannot be used to enumerate accounts.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	CleanupExpiredTokens(ctx context.Context) error
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type authService struct {
	cfg       *config.Config
	userRepo  repositories.UserRepository
	tokenRepo repositories.TokenRepository
	jwt       JWTService
	email     EmailService
}

func NewAuthService(
	cfg *config.Config,
	userRepo repositories.UserRepository,
	tokenRepo repositories.TokenRepository,
	jwt JWTService,
	email EmailService,
) AuthService {
	return &authService{
		cfg:       cfg,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwt:       jwt,
		email:     email,
	}
}

func (s *authService) Register(ctx context.Context, req dtos.RegisterRequest) (*models.User, error) {
	email := utils.NormalizeEmail(req.Email)
	if !utils.IsValidEmail(email) {
		return nil, validationError("Invalid email address")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleClient,
		DateFormat:   utils.DefaultDateFormat,
		TimeFormat:   utils.DefaultTimeFormat,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, utils.ErrEmailExists) {
			return nil, utils.NewAppError(http.StatusConflict, utils.ErrCodeEmailExists, "Email already registered", err)
		}
		return nil, err
	}

	utils.Logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password, ip string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, "", "", err
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", "", utils.NewAppError(
			http.StatusUnauthorized, utils.ErrCodeInvalidCredentials, "Invalid email or password", utils.ErrInvalidCredentials,
		)
	}

	access, err := s.jwt.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, "", "", err
	}
	rt, err := s.jwt.GenerateRefreshToken(ctx, user.ID, ip)
	if err != nil {
		return nil, "", "", err
	}

	if err := s.userRepo.TouchLastSignIn(ctx, user.ID); err != nil {
		utils.Logger.WithError(err).WithField("user_id", user.ID).Warn("failed to record sign-in time")
	} else {
		now := time.Now()
		user.LastSignInAt = &now
	}
	return user, access, rt.Token, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken, ip string) (string, string, error) {
	access, refresh, err := s.jwt.RefreshToken(ctx, refreshToken, ip)
	if err != nil {
		switch {
		case errors.Is(err, ErrRefreshTokenExpired):
			return "", "", utils.NewAppError(http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Refresh token expired", err)
		case errors.Is(err, ErrInvalidRefreshToken):
			return "", "", utils.NewAppError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid refresh token", err)
		}
		return "", "", err
	}
	return access, refresh, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.jwt.Logout(ctx, refreshToken)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	logger := utils.Logger.WithField("operation", "RequestPasswordReset")

	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		logger.Debug("password reset requested for unknown email")
		return nil
	}

	raw := utils.RandomToken(passwordResetTokenBytes)
	token := &models.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.cfg.PasswordResetTTL),
	}
	if err := s.tokenRepo.CreatePasswordReset(ctx, token, raw); err != nil {
		return err
	}

	link := s.cfg.AppUrl + "/reset-password?token=" + url.QueryEscape(raw)
	minutes := int(s.cfg.PasswordResetTTL.Minutes())
	name := user.DisplayName()
	plain := fmt.Sprintf(passwordResetEmailPlain, name, s.cfg.OrganizationName, minutes, link)
	html := fmt.Sprintf(passwordResetEmailHTML, name, minutes, link, time.Now().Year(), s.cfg.OrganizationName)

	if err := s.email.Send(ctx, user.Email, passwordResetEmailSubject, plain, html); err != nil {
		logger.WithError(err).WithField("user_id", user.ID).Error("failed to send password reset email")
		return err
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	invalid := utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "Reset link is invalid or expired", nil)

	rec, err := s.tokenRepo.GetPasswordReset(ctx, token)
	if err != nil {
		return err
	}
	if rec == nil || !rec.Usable(time.Now()) {
		return invalid
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, rec.UserID, hash); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return invalid
		}
		return err
	}
	if err := s.tokenRepo.MarkPasswordResetUsed(ctx, rec.ID); err != nil {
		return err
	}

	// Sessions opened with the old password are revoked.
	if err := s.tokenRepo.RemoveAllRefreshTokensByUserID(ctx, rec.UserID); err != nil {
		utils.Logger.WithError(err).WithField("user_id", rec.UserID).Error("failed to revoke sessions after password reset")
	}
	return nil
}

func (s *authService) CleanupExpiredTokens(ctx context.Context) error {
	var removed int64
	err := runWithRetry(ctx, func(ctx context.Context) error {
		n, err := s.tokenRepo.CleanupExpiredRefreshTokens(ctx)
		removed = n
		return err
	})
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to cleanup expired refresh tokens")
		return err
	}
	utils.Logger.WithField("removed", removed).Info("Expired refresh token cleanup completed")
	return nil
}
