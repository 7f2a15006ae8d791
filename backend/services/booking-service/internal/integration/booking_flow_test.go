//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/routes"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-testhelpers"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

func TestBookingOverlapIsRejected(t *testing.T) {
	h.T = t
	ctx := h.Ctx
	owner := h.CreateTestUser(ctx, "owner", models.RoleClient, nil)
	room := h.CreateTestRoom(ctx, owner.ID, "Overlap room")
	token := h.CreateAccessJWT(owner)
	client := h.NewHTTPClient()

	in, out := testhelpers.StayWindow(400, 3)
	existing := h.CreateTestBooking(ctx, room, in, out)

	// Starts inside the existing stay.
	clash := dtos.BookingRequest{
		RoomID:      room.ID,
		ClientName:  "Clash",
		ClientPhone: testhelpers.UniquePhone(),
		Adults:      1,
		CheckIn:     in.Add(24 * time.Hour),
		CheckOut:    out.Add(24 * time.Hour),
	}
	resp := h.DoRequest(h.BuildAuthRequest(http.MethodPost, url(routes.Bookings, owner.ID.String()), token, mustJSON(t, clash)), client)
	require.Equal(t, http.StatusConflict, resp.StatusCode, h.ReadBody(resp))
	var errResp utils.ErrorResponse
	decode(t, resp, &errResp)
	resp.Body.Close()
	require.Equal(t, utils.ErrCodeBookingConflict, errResp.Code)

	// Checking in the day the previous guest checks out is fine.
	nextIn, nextOut := testhelpers.StayWindow(403, 2)
	next := clash
	next.CheckIn, next.CheckOut = nextIn, nextOut
	resp = h.DoRequest(h.BuildAuthRequest(http.MethodPost, url(routes.Bookings, owner.ID.String()), token, mustJSON(t, next)), client)
	require.Equal(t, http.StatusCreated, resp.StatusCode, h.ReadBody(resp))
	resp.Body.Close()

	avail := fmt.Sprintf("%s?check_in=%s&check_out=%s",
		url(routes.RoomAvailability, owner.ID.String(), room.ID.String()),
		in.Format(time.RFC3339), out.Format(time.RFC3339))
	resp = h.DoRequest(h.BuildAuthRequest(http.MethodGet, avail, token, nil), client)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ar dtos.AvailabilityResponse
	decode(t, resp, &ar)
	resp.Body.Close()
	require.False(t, ar.Available)
	require.Len(t, ar.Conflicts, 1)
	require.Equal(t, existing.ID, ar.Conflicts[0].ID)
}

func TestOtherOwnersDataIsForbidden(t *testing.T) {
	h.T = t
	ctx := h.Ctx
	alice := h.CreateTestUser(ctx, "alice", models.RoleClient, nil)
	bob := h.CreateTestUser(ctx, "bob", models.RoleClient, nil)
	h.CreateTestRoom(ctx, alice.ID, "Alice room")

	req := h.BuildAuthRequest(http.MethodGet, url(routes.Rooms, alice.ID.String()), h.CreateAccessJWT(bob), nil)
	resp := h.DoRequest(req, h.NewHTTPClient())
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCleanerMarksRoomReady(t *testing.T) {
	h.T = t
	ctx := h.Ctx
	owner := h.CreateTestUser(ctx, "owner", models.RoleClient, nil)
	cleaner := h.CreateTestUser(ctx, "cleaner", models.RoleCleaner, &owner.ID)
	room := h.CreateTestRoom(ctx, owner.ID, "Cleaner room")
	token := h.CreateAccessJWT(cleaner)
	client := h.NewHTTPClient()
	statusURL := url(routes.RoomStatus, owner.ID.String(), room.ID.String())

	for _, st := range []models.RoomStatus{models.RoomStatusCleaning, models.RoomStatusReady} {
		body := mustJSON(t, dtos.UpdateRoomStatusRequest{Status: st})
		resp := h.DoRequest(h.BuildAuthRequest(http.MethodPut, statusURL, token, body), client)
		require.Equal(t, http.StatusOK, resp.StatusCode, h.ReadBody(resp))
		resp.Body.Close()
	}

	stored, err := h.RoomRepo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomStatusReady, stored.Status)
	require.NotNil(t, stored.LastCleanedBy)
	require.Equal(t, cleaner.ID, *stored.LastCleanedBy)
	require.NotNil(t, stored.LastCleanedAt)
}

func TestRoomCalendarExport(t *testing.T) {
	h.T = t
	ctx := h.Ctx
	owner := h.CreateTestUser(ctx, "ics", models.RoleClient, nil)
	room := h.CreateTestRoom(ctx, owner.ID, "Calendar room")
	in, out := testhelpers.StayWindow(420, 2)
	h.CreateTestBooking(ctx, room, in, out)

	req := h.BuildAuthRequest(http.MethodGet, url(routes.RoomCalendar, owner.ID.String(), room.ID.String()), h.CreateAccessJWT(owner), nil)
	resp := h.DoRequest(req, h.NewHTTPClient())
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))
	require.Contains(t, h.ReadBody(resp), "BEGIN:VEVENT")
}
