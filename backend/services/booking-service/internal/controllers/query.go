package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	internal_utils "github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils"
)

// parseTimeParam accepts RFC 3339 or a bare YYYY-MM-DD, the latter taken
// as midnight in the business time zone.
func parseTimeParam(name, raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := internal_utils.ParseDay(raw, constants.AvitoLocation())
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC 3339 or YYYY-MM-DD", name)
	}
	return t, nil
}

func optionalTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseTimeParam(name, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func requiredTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	return parseTimeParam(name, raw)
}

// parseBookingListQuery reads ?from=&to=&room_id=.
func parseBookingListQuery(r *http.Request) (dtos.BookingListQuery, error) {
	var q dtos.BookingListQuery
	var err error
	if q.From, err = optionalTimeParam(r, "from"); err != nil {
		return q, err
	}
	if q.To, err = optionalTimeParam(r, "to"); err != nil {
		return q, err
	}
	if raw := r.URL.Query().Get("room_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, fmt.Errorf("room_id must be a UUID")
		}
		q.RoomID = &id
	}
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		return q, fmt.Errorf("from must be before to")
	}
	return q, nil
}

// parseExportRange defaults to the current calendar month.
func parseExportRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	from, err := optionalTimeParam(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := optionalTimeParam(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	local := now.In(constants.AvitoLocation())
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, local.Location())
	if from == nil {
		from = &monthStart
	}
	if to == nil {
		end := from.AddDate(0, 1, 0)
		to = &end
	}
	return *from, *to, nil
}

// parseTimelineQuery reads ?start=YYYY-MM-DD&days=N; start defaults to today.
func parseTimelineQuery(r *http.Request, now time.Time) (time.Time, int, error) {
	loc := constants.AvitoLocation()
	start := internal_utils.StartOfDay(now.In(loc))
	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := internal_utils.ParseDay(raw, loc)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("start must be YYYY-MM-DD")
		}
		start = t
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return time.Time{}, 0, fmt.Errorf("days must be a non-negative integer")
		}
		days = n
	}
	return start, days, nil
}
