package testhelpers

import (
	"time"
)

var moscow = time.FixedZone("MSK", 3*60*60)

// StayWindow returns a check-in at 14:00 and a check-out at 12:00 MSK,
// startOffset days from today and nights long. Offsets far in the future
// keep tests clear of bookings left by other runs.
func StayWindow(startOffset, nights int) (time.Time, time.Time) {
	now := time.Now().In(moscow)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, moscow).AddDate(0, 0, startOffset)
	checkIn := day.Add(14 * time.Hour)
	checkOut := day.AddDate(0, 0, nights).Add(12 * time.Hour)
	return checkIn.UTC(), checkOut.UTC()
}
