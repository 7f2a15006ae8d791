package controllers

import (
	"net/http"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	internal_utils "github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils"
	shared_dtos "github.com/rikster-r/booking-calendar/backend/shared/go-dtos"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// RefreshCookiePath covers both the refresh and logout endpoints.
const RefreshCookiePath = "/api"

type AuthController struct {
	authService services.AuthService
	limiter     services.RateLimiterService
	cfg         *config.Config
}

func NewAuthController(authService services.AuthService, limiter services.RateLimiterService, cfg *config.Config) *AuthController {
	return &AuthController{authService: authService, limiter: limiter, cfg: cfg}
}

// Register => POST /api/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := c.authService.Register(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, shared_dtos.NewUserFromModel(*user))
}

// Login => POST /api/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ip := utils.ClientIP(r)
	if err := c.limiter.CheckLoginRateLimits(r.Context(), ip, req.Email); err != nil {
		utils.HandleAppError(w, err)
		return
	}

	user, access, refresh, err := c.authService.Login(r.Context(), req.Email, req.Password, ip)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	internal_utils.SetAuthCookies(w, access, refresh,
		c.cfg.AccessTokenExpiry, c.cfg.RefreshTokenExpiry,
		RefreshCookiePath, c.cfg.Flag_CORSHighSecurity)

	utils.RespondWithJSON(w, http.StatusOK, dtos.LoginResponse{
		User:         shared_dtos.NewUserFromModel(*user),
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// RefreshToken => POST /api/token/refresh
func (c *AuthController) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dtos.RefreshTokenRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	token := internal_utils.RefreshTokenFromRequest(r, req.RefreshToken)
	if token == "" {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing refresh token", nil, nil)
		return
	}

	access, refresh, err := c.authService.RefreshToken(r.Context(), token, utils.ClientIP(r))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	internal_utils.SetAuthCookies(w, access, refresh,
		c.cfg.AccessTokenExpiry, c.cfg.RefreshTokenExpiry,
		RefreshCookiePath, c.cfg.Flag_CORSHighSecurity)

	utils.RespondWithJSON(w, http.StatusOK, dtos.RefreshTokenResponse{AccessToken: access, RefreshToken: refresh})
}

// Logout => POST /api/logout. Cookies are cleared even when the token is
// already gone.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	var req dtos.LogoutRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	if token := internal_utils.RefreshTokenFromRequest(r, req.RefreshToken); token != "" {
		if err := c.authService.Logout(r.Context(), token); err != nil {
			utils.HandleAppError(w, err)
			return
		}
	}

	internal_utils.ClearAuthCookies(w, RefreshCookiePath, c.cfg.Flag_CORSHighSecurity)
	utils.RespondWithMessage(w, http.StatusOK, "Logged out")
}

// ForgotPassword => POST /api/password/forgot
func (c *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dtos.ForgotPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := c.limiter.CheckEmailRateLimits(r.Context(), utils.ClientIP(r), req.Email); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if err := c.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "If the account exists, a reset link has been sent")
}

// ResetPassword => POST /api/password/reset
func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dtos.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := c.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	internal_utils.ClearAuthCookies(w, RefreshCookiePath, c.cfg.Flag_CORSHighSecurity)
	utils.RespondWithMessage(w, http.StatusOK, "Password updated")
}

// Session => GET /api/session
func (c *AuthController) Session(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shared_dtos.NewUserFromModel(*actor.User))
}
