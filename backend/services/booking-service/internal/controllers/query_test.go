package controllers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
)

func TestParseTimeParam(t *testing.T) {
	got, err := parseTimeParam("from", "2025-04-10T14:00:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, 11, got.UTC().Hour())

	got, err = parseTimeParam("from", "2025-04-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 10, 0, 0, 0, 0, constants.AvitoLocation()).Unix(), got.Unix())

	_, err = parseTimeParam("from", "10.04.2025")
	assert.ErrorContains(t, err, "from")
}

func TestParseBookingListQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?from=2025-04-01&to=2025-04-30&room_id=6f1c1f5e-8a53-4c55-9a57-3f6f4b6f2a10", nil)
	q, err := parseBookingListQuery(r)
	require.NoError(t, err)
	require.NotNil(t, q.From)
	require.NotNil(t, q.To)
	require.NotNil(t, q.RoomID)
	assert.Equal(t, "6f1c1f5e-8a53-4c55-9a57-3f6f4b6f2a10", q.RoomID.String())

	q, err = parseBookingListQuery(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Nil(t, q.From)
	assert.Nil(t, q.RoomID)

	_, err = parseBookingListQuery(httptest.NewRequest("GET", "/x?room_id=abc", nil))
	assert.Error(t, err)
	_, err = parseBookingListQuery(httptest.NewRequest("GET", "/x?from=2025-04-30&to=2025-04-01", nil))
	assert.Error(t, err)
}

func TestParseExportRangeDefaultsToMonth(t *testing.T) {
	now := time.Date(2025, 4, 30, 22, 30, 0, 0, time.UTC) // already May 1st in Moscow
	from, to, err := parseExportRange(httptest.NewRequest("GET", "/x", nil), now)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01", from.Format(time.DateOnly))
	assert.Equal(t, "2025-06-01", to.Format(time.DateOnly))

	from, to, err = parseExportRange(httptest.NewRequest("GET", "/x?from=2025-01-15", nil), now)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", from.Format(time.DateOnly))
	assert.Equal(t, "2025-02-15", to.Format(time.DateOnly))
}

func TestParseTimelineQuery(t *testing.T) {
	now := time.Date(2025, 4, 10, 22, 0, 0, 0, time.UTC)
	start, days, err := parseTimelineQuery(httptest.NewRequest("GET", "/x", nil), now)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-11", start.Format(time.DateOnly))
	assert.Zero(t, days)

	start, days, err = parseTimelineQuery(httptest.NewRequest("GET", "/x?start=2025-01-01&days=14", nil), now)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", start.Format(time.DateOnly))
	assert.Equal(t, 14, days)

	_, _, err = parseTimelineQuery(httptest.NewRequest("GET", "/x?days=-1", nil), now)
	assert.Error(t, err)
}
