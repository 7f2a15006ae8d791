package utils

const (
	OrganizationName                      = "Booking Calendar"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// Display preferences
	DefaultDateFormat = "dd.MM.yyyy"
	DefaultTimeFormat = "HH:mm"

	// Seeded accounts
	SeedAdminEmail = "admin@booking-calendar.local"
	SeedOwnerEmail = "owner@booking-calendar.local"
)
