package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 60px cells -> 2.5px per hour
const testRate = 60.0 / 24

func TestGeometryInsideWindow(t *testing.T) {
	first := at("2025-04-09T00:00")
	last := at("2025-04-20T00:00")

	g := ComputeBookingGeometry(at("2025-04-10T14:00"), at("2025-04-12T11:00"), first, last, testRate)

	// cutoff is 04-08 23:59, check-in is 38h01m later
	assert.Equal(t, 38*testRate, g.X)
	assert.Equal(t, 45*testRate, g.Width)
	assert.True(t, g.Visible)
	assert.True(t, g.RoundTopLeft)
	assert.True(t, g.RoundBottomLeft)
	assert.True(t, g.RoundTopRight)
	assert.True(t, g.RoundBottomRight)
}

func TestGeometryMidnightCheckInStartsAtZero(t *testing.T) {
	first := at("2025-04-10T00:00")
	g := ComputeBookingGeometry(at("2025-04-10T00:00"), at("2025-04-11T00:00"), first, at("2025-04-20T00:00"), testRate)

	assert.Equal(t, 0.0, g.X)
	assert.Equal(t, 24*testRate, g.Width)
	assert.True(t, g.RoundTopLeft)
}

func TestGeometryStartsBeforeWindow(t *testing.T) {
	first := at("2025-04-10T00:00")
	last := at("2025-04-20T00:00")

	g := ComputeBookingGeometry(at("2025-04-08T14:00"), at("2025-04-11T12:00"), first, last, testRate)

	assert.Equal(t, 0.0, g.X)
	// visible part only: from 04-09 23:59 to 04-11 12:00 -> 36h01m
	assert.Equal(t, 36*testRate, g.Width)
	assert.False(t, g.RoundTopLeft)
	assert.False(t, g.RoundBottomLeft)
	assert.True(t, g.RoundTopRight)
	assert.True(t, g.RoundBottomRight)
}

func TestGeometryEndsAfterWindow(t *testing.T) {
	first := at("2025-04-10T00:00")
	last := at("2025-04-12T00:00")

	g := ComputeBookingGeometry(at("2025-04-11T14:00"), at("2025-04-15T12:00"), first, last, testRate)

	// (last - checkIn) + 24h = 10h + 24h
	assert.Equal(t, 34*testRate, g.Width)
	assert.Equal(t, 38*testRate, g.X)
	assert.True(t, g.RoundTopLeft)
	assert.False(t, g.RoundTopRight)
	assert.False(t, g.RoundBottomRight)
}

func TestGeometryCoversWholeWindow(t *testing.T) {
	first := at("2025-04-10T00:00")
	last := at("2025-04-12T00:00")

	g := ComputeBookingGeometry(at("2025-04-01T14:00"), at("2025-04-30T12:00"), first, last, testRate)

	assert.Equal(t, 0.0, g.X)
	// 04-09 23:59 -> 04-12 00:00 truncates to 48h, plus the last day
	assert.Equal(t, 72*testRate, g.Width)
	assert.False(t, g.RoundTopLeft)
	assert.False(t, g.RoundTopRight)
	assert.True(t, g.Visible)
}

func TestGeometryCheckoutOnLastDayStaysRounded(t *testing.T) {
	first := at("2025-04-10T00:00")
	last := at("2025-04-12T00:00")

	g := ComputeBookingGeometry(at("2025-04-11T14:00"), at("2025-04-12T11:00"), first, last, testRate)
	assert.True(t, g.RoundTopRight)
	assert.Equal(t, 21*testRate, g.Width)
}

func TestGeometryOutsideWindow(t *testing.T) {
	first := at("2025-04-10T00:00")
	last := at("2025-04-12T00:00")

	g := ComputeBookingGeometry(at("2025-04-01T14:00"), at("2025-04-03T12:00"), first, last, testRate)
	assert.False(t, g.Visible)
	assert.Equal(t, 0.0, g.Width)
}

func TestHourlyRate(t *testing.T) {
	assert.Equal(t, 2.5, HourlyRate(60))
}
