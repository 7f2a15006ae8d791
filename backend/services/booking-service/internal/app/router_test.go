package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/authz"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/controllers"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/metrics"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils/avito"
	shared_dtos "github.com/rikster-r/booking-calendar/backend/shared/go-dtos"
	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-testhelpers/memrepo"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

func TestMain(m *testing.M) {
	utils.PasswordCost = bcrypt.MinCost
	utils.Logger.SetOutput(io.Discard)
	metrics.Register()
	m.Run()
}

type fakePinger struct{ err error }

func (p *fakePinger) Ping(context.Context) error { return p.err }

type harness struct {
	t      *testing.T
	store  *memrepo.Store
	db     *fakePinger
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := &config.Config{
		AppName:            "booking-service-test",
		AppUrl:             "http://app.test",
		EncryptionSecret:   "test-encryption-secret",
		RSAPrivateKey:      key,
		RSAPublicKey:       &key.PublicKey,
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		PasswordResetTTL:   time.Hour,
		AvitoAPIBaseURL:    "http://avito.invalid",
		AvitoSyncDays:      30,
		TimelineCellWidth:  48,

		LoginLimitPerEmailPerHour: 5,
		EmailLimitPerEmailPerHour: 2,
		RateLimitWindow:           time.Hour,
	}

	store := memrepo.NewStore()
	avitoClient, err := avito.NewClient(cfg.AvitoAPIBaseURL)
	require.NoError(t, err)

	jwtService := services.NewJWTService(cfg, store.Tokens(), store.Users())
	authService := services.NewAuthService(cfg, store.Users(), store.Tokens(), jwtService, services.NewEmailService(cfg))
	avitoTokens := services.NewAvitoTokenService(cfg, avitoClient, store.Credentials(), jwtService)
	avitoSync := services.NewAvitoSyncService(cfg, avitoClient, avitoTokens, store.Rooms(), store.Bookings(), store.Credentials())
	bookingService := services.NewBookingService(cfg, store.Bookings(), store.Rooms(), nil, avitoSync)
	presence := services.NewPresenceService(services.NewMemoryPresenceStore())

	db := &fakePinger{}
	router := NewRouter(cfg, Controllers{
		Health:   controllers.NewHealthController(db, nil),
		Auth:     controllers.NewAuthController(authService, services.NewRateLimiterService(services.NewMemoryRateLimitStore(), cfg), cfg),
		Users:    controllers.NewUserController(services.NewUserService(store.Users(), store.AuditLogs())),
		Rooms:    controllers.NewRoomController(services.NewRoomService(store.Rooms()), bookingService),
		Bookings: controllers.NewBookingController(bookingService, services.NewExportService(store.Rooms(), store.Bookings())),
		Comments: controllers.NewCommentController(services.NewCommentService(store.Comments(), store.Rooms())),
		Avito:    controllers.NewAvitoController(avitoTokens, avitoSync, cfg),
		Timeline: controllers.NewTimelineController(services.NewTimelineService(cfg, store.Rooms(), store.Bookings())),
		Presence: controllers.NewPresenceController(presence, cfg),
	}, authz.NewMiddleware(authz.DefaultPolicy(), store.Users()))

	return &harness{t: t, store: store, db: db, router: router}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[utils.ErrorResponse](t, rec)
	assert.Equal(t, code, body.Code)
	assert.NotEmpty(t, body.Error)
}

// signUp registers a client and logs in, returning its id and tokens.
func (h *harness) signUp(email string) (string, dtos.LoginResponse) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/register", "", dtos.RegisterRequest{
		Email: email, Password: "password123", FirstName: "Test",
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return h.login(email, "password123")
}

func (h *harness) login(email, password string) (string, dtos.LoginResponse) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/login", "", dtos.LoginRequest{Email: email, Password: password})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[dtos.LoginResponse](h.t, rec)
	return resp.User.ID, resp
}

func (h *harness) seedAdmin() dtos.LoginResponse {
	h.t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(h.t, err)
	admin := &models.User{
		ID:           mustUUID(h.t, "aaaaaaaa-0000-0000-0000-000000000001"),
		Email:        "root@example.com",
		PasswordHash: hash,
		FirstName:    "Root",
		Role:         models.RoleAdmin,
	}
	require.NoError(h.t, h.store.Users().Create(context.Background(), admin))
	_, resp := h.login("root@example.com", "password123")
	return resp
}

func (h *harness) createRoom(ownerID, token string) *models.Room {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/users/"+ownerID+"/rooms", token, dtos.CreateRoomRequest{Name: "Studio"})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*models.Room](h.t, rec)
}

func bookingBody(room *models.Room, in, out string) map[string]any {
	return map[string]any{
		"room_id":      room.ID,
		"client_name":  "Ivan",
		"client_phone": "+79990001122",
		"adults":       2,
		"daily_price":  3500,
		"check_in":     in,
		"check_out":    out,
	}
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)
	_, login := h.signUp("owner@example.com")

	assert.Equal(t, "owner@example.com", login.User.Email)
	assert.Equal(t, models.RoleClient, login.User.Role)
	assert.NotEmpty(t, login.AccessToken)

	rec := h.do(http.MethodGet, "/api/session", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, login.User.ID, decode[shared_dtos.User](t, rec).ID)

	// Refresh from the cookie alone.
	req := httptest.NewRequest(http.MethodPost, "/api/token/refresh", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookieName, Value: login.RefreshToken})
	refreshed := httptest.NewRecorder()
	h.router.ServeHTTP(refreshed, req)
	require.Equal(t, http.StatusOK, refreshed.Code, refreshed.Body.String())
	tokens := decode[dtos.RefreshTokenResponse](t, refreshed)
	assert.NotEqual(t, login.RefreshToken, tokens.RefreshToken)
	assert.Len(t, refreshed.Result().Cookies(), 2)

	// The rotated-out token is dead.
	rec = h.do(http.MethodPost, "/api/token/refresh", "", dtos.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/logout", "", dtos.LogoutRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value, c.Name)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.signUp("owner@example.com")

	rec := h.do(http.MethodPost, "/api/login", "", dtos.LoginRequest{Email: "owner@example.com", Password: "wrong-password"})
	requireErrorCode(t, rec, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials)
}

func TestLoginAndResetAreRateLimited(t *testing.T) {
	h := newHarness(t)
	h.signUp("owner@example.com")

	bad := dtos.LoginRequest{Email: "owner@example.com", Password: "wrong-password"}
	for i := 0; i < 4; i++ {
		rec := h.do(http.MethodPost, "/api/login", "", bad)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := h.do(http.MethodPost, "/api/login", "", bad)
	requireErrorCode(t, rec, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded)

	forgot := dtos.ForgotPasswordRequest{Email: "someone@example.com"}
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/password/forgot", "", forgot).Code)
	}
	rec = h.do(http.MethodPost, "/api/password/forgot", "", forgot)
	requireErrorCode(t, rec, http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/register", "", map[string]string{"email": "nope", "password": "x"})
	requireErrorCode(t, rec, http.StatusBadRequest, utils.ErrCodeValidation)
	details := decode[struct {
		Details []shared_dtos.ValidationErrorDetail `json:"details"`
	}](t, rec)
	assert.NotEmpty(t, details.Details)

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{not json"))
	bad := httptest.NewRecorder()
	h.router.ServeHTTP(bad, req)
	requireErrorCode(t, bad, http.StatusBadRequest, utils.ErrCodeInvalidPayload)
}

func TestRoutingErrorsAreJSON(t *testing.T) {
	h := newHarness(t)

	requireErrorCode(t, h.do(http.MethodPatch, "/api/login", "", nil), http.StatusMethodNotAllowed, utils.ErrCodeMethodNotAllowed)
	requireErrorCode(t, h.do(http.MethodGet, "/api/nowhere", "", nil), http.StatusNotFound, utils.ErrCodeNotFound)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newHarness(t)
	ownerID, _ := h.signUp("owner@example.com")

	rec := h.do(http.MethodGet, "/api/users/"+ownerID+"/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = h.do(http.MethodGet, "/api/users/"+ownerID+"/rooms", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnersAreIsolated(t *testing.T) {
	h := newHarness(t)
	ownerA, loginA := h.signUp("a@example.com")
	_, loginB := h.signUp("b@example.com")
	h.createRoom(ownerA, loginA.AccessToken)

	rec := h.do(http.MethodGet, "/api/users/"+ownerA+"/rooms", loginB.AccessToken, nil)
	requireErrorCode(t, rec, http.StatusForbidden, utils.ErrCodeForbidden)

	rec = h.do(http.MethodGet, "/api/users/not-a-uuid/rooms", loginA.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingLifecycle(t *testing.T) {
	h := newHarness(t)
	ownerID, login := h.signUp("owner@example.com")
	token := login.AccessToken
	room := h.createRoom(ownerID, token)
	base := "/api/users/" + ownerID + "/bookings"

	rec := h.do(http.MethodPost, base, token, bookingBody(room, "2025-04-10T14:00:00+03:00", "2025-04-12T12:00:00+03:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[*models.Booking](t, rec)

	rec = h.do(http.MethodPost, base, token, bookingBody(room, "2025-04-11T14:00:00+03:00", "2025-04-13T12:00:00+03:00"))
	requireErrorCode(t, rec, http.StatusConflict, utils.ErrCodeBookingConflict)
	conflict := decode[struct {
		Details dtos.BookingConflictDetails `json:"details"`
	}](t, rec)
	require.Len(t, conflict.Details.Conflicts, 1)
	assert.Equal(t, first.ID, conflict.Details.Conflicts[0].ID)

	// Back-to-back stays share the changeover day.
	rec = h.do(http.MethodPost, base, token, bookingBody(room, "2025-04-12T14:00:00+03:00", "2025-04-14T12:00:00+03:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, base+"?from=2025-04-01&to=2025-04-11", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*models.Booking](t, rec), 1)

	rec = h.do(http.MethodGet, base+"?from=2025-04-11&to=2025-04-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	avail := fmt.Sprintf("/api/users/%s/rooms/%s/availability?check_in=%s&check_out=%s",
		ownerID, room.ID, "2025-04-11T14:00:00%2B03:00", "2025-04-12T12:00:00%2B03:00")
	rec = h.do(http.MethodGet, avail, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	availability := decode[dtos.AvailabilityResponse](t, rec)
	assert.False(t, availability.Available)
	assert.Len(t, availability.Conflicts, 1)

	update := bookingBody(room, "2025-04-10T14:00:00+03:00", "2025-04-11T12:00:00+03:00")
	update["row_version"] = first.RowVersion
	rec = h.do(http.MethodPut, base+"/"+first.ID.String(), token, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The same version again is stale.
	rec = h.do(http.MethodPut, base+"/"+first.ID.String(), token, update)
	requireErrorCode(t, rec, http.StatusConflict, utils.ErrCodeRowVersionConflict)

	rec = h.do(http.MethodDelete, base+"/"+first.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, base+"/"+first.ID.String(), token, nil)
	requireErrorCode(t, rec, http.StatusNotFound, utils.ErrCodeNotFound)
}

func TestRoomNotReadyBlocksBooking(t *testing.T) {
	h := newHarness(t)
	ownerID, login := h.signUp("owner@example.com")
	room := h.createRoom(ownerID, login.AccessToken)

	rec := h.do(http.MethodPut, fmt.Sprintf("/api/users/%s/rooms/%s/status", ownerID, room.ID), login.AccessToken,
		dtos.UpdateRoomStatusRequest{Status: models.RoomStatusNotReady})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/users/"+ownerID+"/bookings", login.AccessToken,
		bookingBody(room, "2025-04-10T14:00:00+03:00", "2025-04-12T12:00:00+03:00"))
	requireErrorCode(t, rec, http.StatusBadRequest, utils.ErrCodeRoomNotReady)
}

func TestCleanerPermissions(t *testing.T) {
	h := newHarness(t)
	ownerID, owner := h.signUp("owner@example.com")
	room := h.createRoom(ownerID, owner.AccessToken)
	admin := h.seedAdmin()

	rec := h.do(http.MethodPost, "/api/admin/users", admin.AccessToken, map[string]any{
		"email":      "cleaner@example.com",
		"password":   "password123",
		"first_name": "Pavel",
		"role":       "cleaner",
		"related_to": ownerID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, cleaner := h.login("cleaner@example.com", "password123")

	rec = h.do(http.MethodGet, "/api/users/"+ownerID+"/rooms", cleaner.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*models.Room](t, rec), 1)

	statusPath := fmt.Sprintf("/api/users/%s/rooms/%s/status", ownerID, room.ID)
	rec = h.do(http.MethodPut, statusPath, cleaner.AccessToken, dtos.UpdateRoomStatusRequest{Status: models.RoomStatusCleaning})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode[*models.Room](t, rec).LastCleanedBy)

	rec = h.do(http.MethodPut, statusPath, cleaner.AccessToken, dtos.UpdateRoomStatusRequest{Status: models.RoomStatusReady})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[*models.Room](t, rec)
	require.NotNil(t, updated.LastCleanedBy)
	assert.Equal(t, cleaner.User.ID, updated.LastCleanedBy.String())

	rec = h.do(http.MethodPost, "/api/users/"+ownerID+"/bookings", cleaner.AccessToken,
		bookingBody(room, "2025-04-10T14:00:00+03:00", "2025-04-12T12:00:00+03:00"))
	requireErrorCode(t, rec, http.StatusForbidden, utils.ErrCodeForbidden)

	// Cleaners may read their owner's profile but not edit it.
	rec = h.do(http.MethodGet, "/api/users/"+ownerID, cleaner.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodPut, "/api/users/"+ownerID, cleaner.AccessToken, map[string]string{"first_name": "Hacked"})
	requireErrorCode(t, rec, http.StatusForbidden, utils.ErrCodeForbidden)

	rec = h.do(http.MethodGet, "/api/users/"+ownerID+"/cleaners", owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cleaners := decode[[]shared_dtos.User](t, rec)
	require.Len(t, cleaners, 1)
	assert.Equal(t, "cleaner@example.com", cleaners[0].Email)
}

func TestCommentsRoutes(t *testing.T) {
	h := newHarness(t)
	ownerID, owner := h.signUp("owner@example.com")
	room := h.createRoom(ownerID, owner.AccessToken)
	base := fmt.Sprintf("/api/users/%s/rooms/%s/comments", ownerID, room.ID)

	rec := h.do(http.MethodPost, base, owner.AccessToken, dtos.CommentRequest{Body: "Key under the mat"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[*models.Comment](t, rec)

	rec = h.do(http.MethodPut, base+"/"+comment.ID.String(), owner.AccessToken, dtos.CommentRequest{Body: "Key at reception"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, base, owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]*models.Comment](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Key at reception", list[0].Body)

	rec = h.do(http.MethodDelete, base+"/"+comment.ID.String(), owner.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	h := newHarness(t)
	ownerID, owner := h.signUp("owner@example.com")
	admin := h.seedAdmin()

	rec := h.do(http.MethodGet, "/api/admin/users", owner.AccessToken, nil)
	requireErrorCode(t, rec, http.StatusForbidden, utils.ErrCodeForbidden)

	rec = h.do(http.MethodGet, "/api/admin/users", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]shared_dtos.User](t, rec), 2)

	rec = h.do(http.MethodPut, "/api/admin/users/"+ownerID+"/role", admin.AccessToken, dtos.UpdateRoleRequest{Role: models.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.RoleAdmin, decode[shared_dtos.User](t, rec).Role)

	rec = h.do(http.MethodDelete, "/api/admin/users/"+ownerID, admin.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// A deleted account's token no longer resolves.
	rec = h.do(http.MethodGet, "/api/session", owner.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTimelineAndExports(t *testing.T) {
	h := newHarness(t)
	ownerID, owner := h.signUp("owner@example.com")
	room := h.createRoom(ownerID, owner.AccessToken)
	rec := h.do(http.MethodPost, "/api/users/"+ownerID+"/bookings", owner.AccessToken,
		bookingBody(room, "2025-04-10T14:00:00+03:00", "2025-04-12T12:00:00+03:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/users/"+ownerID+"/timeline?start=2025-04-08&days=10", owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	timeline := decode[dtos.TimelineResponse](t, rec)
	assert.Len(t, timeline.Days, 10)
	require.Len(t, timeline.Rooms, 1)
	assert.Len(t, timeline.Rooms[0].Bookings, 1)

	rec = h.do(http.MethodGet, "/api/users/"+ownerID+"/timeline?start=04/08/2025", owner.AccessToken, nil)
	requireErrorCode(t, rec, http.StatusBadRequest, utils.ErrCodeValidation)

	rec = h.do(http.MethodGet, "/api/users/"+ownerID+"/bookings/export.xlsx?from=2025-04-01&to=2025-05-01", owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bookings-2025-04-01-2025-05-01.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = h.do(http.MethodGet, fmt.Sprintf("/api/users/%s/rooms/%s/calendar.ics", ownerID, room.ID), owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VEVENT")
}

func TestAvitoWithoutClientCredentials(t *testing.T) {
	h := newHarness(t)
	_, owner := h.signUp("owner@example.com")

	rec := h.do(http.MethodGet, "/api/avito/authorize", owner.AccessToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = h.do(http.MethodGet, "/api/avito/accessToken", owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[dtos.AvitoConnectionResponse](t, rec).Connected)

	// The callback always lands back on the front end.
	rec = h.do(http.MethodGet, "/api/avito/callback?code=abc&state=forged", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "http://app.test/settings?"))
	assert.Contains(t, rec.Header().Get("Location"), "avito=error")
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", decode[dtos.HealthResponse](t, rec).Database)

	h.db.err = errors.New("connection refused")
	rec = h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPresenceWebsocket(t *testing.T) {
	h := newHarness(t)
	_, owner := h.signUp("owner@example.com")

	srv := httptest.NewServer(h.router)
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+owner.AccessToken)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/presence/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer resp.Body.Close()

	var ev dtos.PresenceEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, dtos.PresenceSync, ev.Type)
	require.Len(t, ev.Users, 1)
	assert.Equal(t, owner.User.ID, ev.Users[0].UserID)

	rec := h.do(http.MethodGet, "/api/presence", owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dtos.OnlineUser](t, rec), 1)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		rec := h.do(http.MethodGet, "/api/presence", owner.AccessToken, nil)
		return rec.Code == http.StatusOK && len(decode[[]dtos.OnlineUser](t, rec)) == 0
	}, 5*time.Second, 20*time.Millisecond)
}
