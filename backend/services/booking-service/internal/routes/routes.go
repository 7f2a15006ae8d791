package routes

const (
	// Health
	Health  = "/health"
	Metrics = "/metrics"

	// Auth (public)
	Register       = "/api/register"
	Login          = "/api/login"
	TokenRefresh   = "/api/token/refresh"
	Logout         = "/api/logout"
	PasswordForgot = "/api/password/forgot"
	PasswordReset  = "/api/password/reset"
	Session        = "/api/session"

	// Users
	User         = "/api/users/{id}"
	UserCleaners = "/api/users/{id}/cleaners"
	UserTimeline = "/api/users/{id}/timeline"

	// Rooms
	Rooms            = "/api/users/{id}/rooms"
	Room             = "/api/users/{id}/rooms/{roomId}"
	RoomStatus       = "/api/users/{id}/rooms/{roomId}/status"
	RoomAvailability = "/api/users/{id}/rooms/{roomId}/availability"
	RoomCalendar     = "/api/users/{id}/rooms/{roomId}/calendar.ics"
	RoomComments     = "/api/users/{id}/rooms/{roomId}/comments"
	RoomComment      = "/api/users/{id}/rooms/{roomId}/comments/{commentId}"

	// Bookings
	Bookings       = "/api/users/{id}/bookings"
	BookingsExport = "/api/users/{id}/bookings/export.xlsx"
	Booking        = "/api/users/{id}/bookings/{bookingId}"

	// Avito
	AvitoAccessToken = "/api/avito/accessToken"
	AvitoAuthorize   = "/api/avito/authorize"
	AvitoCallback    = "/api/avito/callback"
	AvitoItem        = "/api/avito/items/{itemId}"
	AvitoSync        = "/api/users/{id}/avito/sync"

	// Presence
	Presence   = "/api/presence"
	PresenceWS = "/api/presence/ws"

	// Admin
	AdminUsers    = "/api/admin/users"
	AdminUser     = "/api/admin/users/{id}"
	AdminUserRole = "/api/admin/users/{id}/role"
)

// Path variables.
const (
	VarRoomID    = "roomId"
	VarBookingID = "bookingId"
	VarCommentID = "commentId"
	VarItemID    = "itemId"
)
