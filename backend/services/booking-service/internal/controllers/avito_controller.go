package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/routes"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	internal_utils "github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// AvitoSettingsPath is where the front end shows the connection state
// after the OAuth redirect.
const AvitoSettingsPath = "/settings"

type AvitoController struct {
	tokenService services.AvitoTokenService
	syncService  services.AvitoSyncService
	cfg          *config.Config
	now          func() time.Time
}

func NewAvitoController(
	tokenService services.AvitoTokenService,
	syncService services.AvitoSyncService,
	cfg *config.Config,
) *AvitoController {
	return &AvitoController{tokenService: tokenService, syncService: syncService, cfg: cfg, now: time.Now}
}

// SaveAccessToken => POST /api/avito/accessToken
func (c *AvitoController) SaveAccessToken(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.SaveAvitoTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := c.tokenService.Connect(r.Context(), actor.OwnerID, req.Code); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	c.respondStatus(w, r, actor.OwnerID, http.StatusCreated)
}

// GetAccessToken => GET /api/avito/accessToken. Only the connection state
// is returned, never the token itself.
func (c *AvitoController) GetAccessToken(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	c.respondStatus(w, r, actor.OwnerID, http.StatusOK)
}

// DeleteAccessToken => DELETE /api/avito/accessToken
func (c *AvitoController) DeleteAccessToken(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := c.tokenService.Disconnect(r.Context(), actor.OwnerID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Authorize => GET /api/avito/authorize
func (c *AvitoController) Authorize(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	authURL, err := c.tokenService.AuthorizeURL(r.Context(), actor.OwnerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.AvitoAuthorizeResponse{URL: authURL})
}

// Callback => GET /api/avito/callback?code=&state=
// Public: the user is identified by the signed state. Always redirects back
// to the front end, carrying the outcome in the query string.
func (c *AvitoController) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logger := utils.Logger.WithField("handler", "AvitoCallback")

	if reason := q.Get("error"); reason != "" {
		logger.WithField("reason", reason).Warn("Avito authorization declined")
		c.redirectSettings(w, r, "error", reason)
		return
	}
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		c.redirectSettings(w, r, "error", utils.ErrCodeInvalidPayload)
		return
	}

	userID, err := c.tokenService.HandleCallback(r.Context(), state, code)
	if err != nil {
		reason := utils.ErrCodeInternal
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			reason = appErr.Code
		}
		logger.WithError(err).Warn("Avito callback failed")
		c.redirectSettings(w, r, "error", reason)
		return
	}

	logger.WithField("user_id", userID).Info("Avito account connected")
	c.redirectSettings(w, r, "connected", "")
}

// GetItem => GET /api/avito/items/{itemId}
func (c *AvitoController) GetItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	itemID, err := strconv.ParseInt(mux.Vars(r)[routes.VarItemID], 10, 64)
	if err != nil || itemID <= 0 {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid item id", nil, err)
		return
	}

	item, err := c.tokenService.GetItem(r.Context(), actor.OwnerID, itemID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.AvitoItemResponse{ID: item.ID, Status: item.Status, URL: item.URL})
}

// Sync => POST /api/users/{id}/avito/sync
func (c *AvitoController) Sync(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.AvitoSyncRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	from, to := c.syncService.DefaultWindow(c.now())
	loc := constants.AvitoLocation()
	if req.From != nil {
		t, err := internal_utils.ParseDay(*req.From, loc)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "from must be YYYY-MM-DD", nil, err)
			return
		}
		from = t
	}
	if req.To != nil {
		t, err := internal_utils.ParseDay(*req.To, loc)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "to must be YYYY-MM-DD", nil, err)
			return
		}
		to = t
	}

	report, err := c.syncService.SyncOwner(r.Context(), actor.OwnerID, from, to)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, report)
}

func (c *AvitoController) respondStatus(w http.ResponseWriter, r *http.Request, ownerID uuid.UUID, status int) {
	resp, err := c.tokenService.Status(r.Context(), ownerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, status, resp)
}

func (c *AvitoController) redirectSettings(w http.ResponseWriter, r *http.Request, outcome, reason string) {
	v := url.Values{}
	v.Set("avito", outcome)
	if reason != "" {
		v.Set("reason", reason)
	}
	http.Redirect(w, r, c.cfg.AppUrl+AvitoSettingsPath+"?"+v.Encode(), http.StatusFound)
}
