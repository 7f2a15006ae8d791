package utils

import (
	"time"

	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

const HoursPerDay = 24

// BookingGeometry is where a booking bar sits on the horizontal timeline.
// Square corners mark a stay that continues off-screen on that side.
type BookingGeometry struct {
	X                float64 `json:"x"`
	Width            float64 `json:"width"`
	Visible          bool    `json:"visible"`
	RoundTopLeft     bool    `json:"round_top_left"`
	RoundBottomLeft  bool    `json:"round_bottom_left"`
	RoundTopRight    bool    `json:"round_top_right"`
	RoundBottomRight bool    `json:"round_bottom_right"`
}

// HourlyRate converts a day cell width in pixels to pixels per hour.
func HourlyRate(cellWidth float64) float64 {
	return cellWidth / HoursPerDay
}

// TimelineCutoff is "yesterday 23:59" relative to the first visible day.
func TimelineCutoff(firstDay time.Time) time.Time {
	return StartOfDay(firstDay).Add(-time.Minute)
}

// wholeHours truncates toward zero, so a 23:59 cutoff puts a midnight
// check-in at offset zero.
func wholeHours(d time.Duration) float64 {
	return float64(d / time.Hour)
}

// ComputeBookingGeometry maps [checkIn, checkOut) onto a window running
// from firstDay through the end of lastDay.
//
//	x     = max(0, hours(checkIn - cutoff)) * rate
//	width = hours(checkOut - checkIn) * rate, clamped on each side:
//	        starts before cutoff    -> checkOut - cutoff
//	        ends after lastDay      -> (lastDay - checkIn) + 24h
//
// When both clamps apply the start clamp feeds into the end clamp, giving
// the full window.
func ComputeBookingGeometry(checkIn, checkOut, firstDay, lastDay time.Time, hourlyRate float64) BookingGeometry {
	cutoff := TimelineCutoff(firstDay)
	lastStart := StartOfDay(lastDay)
	windowEnd := lastStart.Add(HoursPerDay * time.Hour)

	startsBefore := checkIn.Before(cutoff)
	endsAfter := checkOut.After(windowEnd)

	offset := wholeHours(checkIn.Sub(cutoff))
	if offset < 0 {
		offset = 0
	}

	start := checkIn
	if startsBefore {
		start = cutoff
	}

	var duration float64
	if endsAfter {
		duration = wholeHours(lastStart.Sub(start)) + HoursPerDay
	} else {
		duration = wholeHours(checkOut.Sub(start))
	}
	if duration < 0 {
		duration = 0
	}

	return BookingGeometry{
		X:                offset * hourlyRate,
		Width:            duration * hourlyRate,
		Visible:          utils.Overlaps(checkIn, checkOut, cutoff, windowEnd),
		RoundTopLeft:     !startsBefore,
		RoundBottomLeft:  !startsBefore,
		RoundTopRight:    !endsAfter,
		RoundBottomRight: !endsAfter,
	}
}
