package constants

import (
	"time"
)

// Avito dates carry no time of day; these are the house rules applied
// when turning them into stays.
const (
	AvitoCheckInHour  = 14
	AvitoCheckOutHour = 12
	AvitoSyncSource   = "booking-calendar"
	AvitoPushType     = "manual"
	AvitoFallbackName = "Avito guest"
)

// AvitoCallbackPath receives the OAuth redirect; it is appended to APP_URL.
const AvitoCallbackPath = "/api/avito/callback"

// Avito reports times for the Moscow office.
const AvitoTimeZone = "Europe/Moscow"

const (
	DefaultRoomColor       = "#4f46e5"
	DefaultTimelineDays    = 30
	MaxTimelineDays        = 120
	MaxExportRangeDays     = 366
	OAuthStateTTL          = 10 * time.Minute
	AvitoPushTimeout       = 15 * time.Second
	AvitoSyncPerOwnerLimit = 5 * time.Minute
)

// Presence websocket keepalive.
const (
	PresenceWriteWait  = 10 * time.Second
	PresencePongWait   = 60 * time.Second
	PresencePingPeriod = 20 * time.Second
	PresenceSendBuffer = 16
)

// AvitoLocation falls back to a fixed +03:00 zone when tzdata is missing.
func AvitoLocation() *time.Location {
	if loc, err := time.LoadLocation(AvitoTimeZone); err == nil {
		return loc
	}
	return time.FixedZone("MSK", 3*60*60)
}
