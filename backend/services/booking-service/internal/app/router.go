package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/authz"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/controllers"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/metrics"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/routes"
	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// Controllers groups every HTTP handler the router mounts.
type Controllers struct {
	Health   *controllers.HealthController
	Auth     *controllers.AuthController
	Users    *controllers.UserController
	Rooms    *controllers.RoomController
	Bookings *controllers.BookingController
	Comments *controllers.CommentController
	Avito    *controllers.AvitoController
	Timeline *controllers.TimelineController
	Presence *controllers.PresenceController
}

// NewRouter mounts the public routes, then the authenticated ones behind
// the JWT middleware and a per-route policy check.
func NewRouter(cfg *config.Config, c Controllers, guard *authz.Middleware) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	router.Use(middleware.RequestLogger, metrics.Middleware)

	// Health & metrics
	router.HandleFunc(routes.Health, c.Health.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, metrics.Handler()).Methods(http.MethodGet)

	// Public auth
	router.HandleFunc(routes.Register, c.Auth.Register).Methods(http.MethodPost)
	router.HandleFunc(routes.Login, c.Auth.Login).Methods(http.MethodPost)
	router.HandleFunc(routes.TokenRefresh, c.Auth.RefreshToken).Methods(http.MethodPost)
	router.HandleFunc(routes.Logout, c.Auth.Logout).Methods(http.MethodPost)
	router.HandleFunc(routes.PasswordForgot, c.Auth.ForgotPassword).Methods(http.MethodPost)
	router.HandleFunc(routes.PasswordReset, c.Auth.ResetPassword).Methods(http.MethodPost)
	router.HandleFunc(routes.AvitoCallback, c.Avito.Callback).Methods(http.MethodGet)

	protected := router.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	guarded := func(path string, res authz.Resource, act authz.Action, h http.HandlerFunc, methods ...string) {
		protected.Handle(path, guard.Require(res, act)(h)).Methods(methods...)
	}
	authenticated := func(path string, h http.HandlerFunc, methods ...string) {
		protected.Handle(path, guard.Authenticated(h)).Methods(methods...)
	}

	authenticated(routes.Session, c.Auth.Session, http.MethodGet)

	// Users
	guarded(routes.User, authz.ResourceUser, authz.ActionRead, c.Users.GetUser, http.MethodGet)
	guarded(routes.User, authz.ResourceUser, authz.ActionUpdate, c.Users.UpdateUser, http.MethodPut)
	guarded(routes.UserCleaners, authz.ResourceCleaner, authz.ActionRead, c.Users.ListCleaners, http.MethodGet)
	guarded(routes.UserTimeline, authz.ResourceTimeline, authz.ActionRead, c.Timeline.GetTimeline, http.MethodGet)

	// Rooms
	guarded(routes.Rooms, authz.ResourceRoom, authz.ActionRead, c.Rooms.ListRooms, http.MethodGet)
	guarded(routes.Rooms, authz.ResourceRoom, authz.ActionCreate, c.Rooms.CreateRoom, http.MethodPost)
	guarded(routes.Room, authz.ResourceRoom, authz.ActionRead, c.Rooms.GetRoom, http.MethodGet)
	guarded(routes.Room, authz.ResourceRoom, authz.ActionUpdate, c.Rooms.UpdateRoom, http.MethodPut)
	guarded(routes.Room, authz.ResourceRoom, authz.ActionDelete, c.Rooms.DeleteRoom, http.MethodDelete)
	guarded(routes.RoomStatus, authz.ResourceRoom, authz.ActionUpdate, c.Rooms.UpdateStatus, http.MethodPut)
	guarded(routes.RoomAvailability, authz.ResourceBooking, authz.ActionRead, c.Rooms.Availability, http.MethodGet)
	guarded(routes.RoomCalendar, authz.ResourceBooking, authz.ActionRead, c.Bookings.RoomCalendar, http.MethodGet)

	// Comments
	guarded(routes.RoomComments, authz.ResourceComment, authz.ActionRead, c.Comments.ListComments, http.MethodGet)
	guarded(routes.RoomComments, authz.ResourceComment, authz.ActionCreate, c.Comments.CreateComment, http.MethodPost)
	guarded(routes.RoomComment, authz.ResourceComment, authz.ActionUpdate, c.Comments.UpdateComment, http.MethodPut)
	guarded(routes.RoomComment, authz.ResourceComment, authz.ActionDelete, c.Comments.DeleteComment, http.MethodDelete)

	// Bookings; the export path must precede {bookingId}.
	guarded(routes.BookingsExport, authz.ResourceBooking, authz.ActionRead, c.Bookings.ExportBookings, http.MethodGet)
	guarded(routes.Bookings, authz.ResourceBooking, authz.ActionRead, c.Bookings.ListBookings, http.MethodGet)
	guarded(routes.Bookings, authz.ResourceBooking, authz.ActionCreate, c.Bookings.CreateBooking, http.MethodPost)
	guarded(routes.Booking, authz.ResourceBooking, authz.ActionRead, c.Bookings.GetBooking, http.MethodGet)
	guarded(routes.Booking, authz.ResourceBooking, authz.ActionUpdate, c.Bookings.UpdateBooking, http.MethodPut)
	guarded(routes.Booking, authz.ResourceBooking, authz.ActionDelete, c.Bookings.DeleteBooking, http.MethodDelete)

	// Avito
	guarded(routes.AvitoAccessToken, authz.ResourceAvito, authz.ActionCreate, c.Avito.SaveAccessToken, http.MethodPost)
	guarded(routes.AvitoAccessToken, authz.ResourceAvito, authz.ActionRead, c.Avito.GetAccessToken, http.MethodGet)
	guarded(routes.AvitoAccessToken, authz.ResourceAvito, authz.ActionDelete, c.Avito.DeleteAccessToken, http.MethodDelete)
	guarded(routes.AvitoAuthorize, authz.ResourceAvito, authz.ActionCreate, c.Avito.Authorize, http.MethodGet)
	guarded(routes.AvitoItem, authz.ResourceAvito, authz.ActionRead, c.Avito.GetItem, http.MethodGet)
	guarded(routes.AvitoSync, authz.ResourceAvito, authz.ActionSync, c.Avito.Sync, http.MethodPost)

	// Presence
	authenticated(routes.Presence, c.Presence.ListOnline, http.MethodGet)
	authenticated(routes.PresenceWS, c.Presence.Connect, http.MethodGet)

	// Admin
	guarded(routes.AdminUsers, authz.ResourceAdmin, authz.ActionRead, c.Users.ListUsers, http.MethodGet)
	guarded(routes.AdminUsers, authz.ResourceAdmin, authz.ActionCreate, c.Users.CreateUser, http.MethodPost)
	guarded(routes.AdminUser, authz.ResourceAdmin, authz.ActionDelete, c.Users.DeleteUser, http.MethodDelete)
	guarded(routes.AdminUserRole, authz.ResourceAdmin, authz.ActionUpdate, c.Users.UpdateRole, http.MethodPut)

	return router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Route not found", nil, nil)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.RespondErrorWithCode(w, http.StatusMethodNotAllowed, utils.ErrCodeMethodNotAllowed, "Method not allowed", nil, nil)
}
