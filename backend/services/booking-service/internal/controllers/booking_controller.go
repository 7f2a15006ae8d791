package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/routes"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

type BookingController struct {
	bookingService services.BookingService
	exportService  services.ExportService
	now            func() time.Time
}

func NewBookingController(bookingService services.BookingService, exportService services.ExportService) *BookingController {
	return &BookingController{bookingService: bookingService, exportService: exportService, now: time.Now}
}

// ListBookings => GET /api/users/{id}/bookings?from=&to=&room_id=
func (c *BookingController) ListBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q, err := parseBookingListQuery(r)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err)
		return
	}

	bookings, err := c.bookingService.ListBookings(r.Context(), actor.OwnerID, q)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, bookings)
}

// CreateBooking => POST /api/users/{id}/bookings
func (c *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.BookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := c.bookingService.CreateBooking(r.Context(), actor.OwnerID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, booking)
}

// GetBooking => GET /api/users/{id}/bookings/{bookingId}
func (c *BookingController) GetBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, routes.VarBookingID)
	if !ok {
		return
	}

	booking, err := c.bookingService.GetBooking(r.Context(), actor.OwnerID, bookingID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, booking)
}

// UpdateBooking => PUT /api/users/{id}/bookings/{bookingId}
func (c *BookingController) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, routes.VarBookingID)
	if !ok {
		return
	}

	var req dtos.BookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := c.bookingService.UpdateBooking(r.Context(), actor.OwnerID, bookingID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, booking)
}

// DeleteBooking => DELETE /api/users/{id}/bookings/{bookingId}
func (c *BookingController) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, routes.VarBookingID)
	if !ok {
		return
	}

	if err := c.bookingService.DeleteBooking(r.Context(), actor.OwnerID, bookingID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportBookings => GET /api/users/{id}/bookings/export.xlsx?from=&to=
func (c *BookingController) ExportBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	from, to, err := parseExportRange(r, c.now())
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err)
		return
	}

	data, err := c.exportService.BookingsXLSX(r.Context(), actor.OwnerID, from, to)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	filename := fmt.Sprintf("bookings-%s-%s.xlsx", from.Format(time.DateOnly), to.Format(time.DateOnly))
	writeAttachment(w, xlsxContentType, filename, data)
}

// RoomCalendar => GET /api/users/{id}/rooms/{roomId}/calendar.ics
func (c *BookingController) RoomCalendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}

	data, err := c.exportService.RoomCalendar(r.Context(), actor.OwnerID, roomID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	writeAttachment(w, icsContentType, "room-"+roomID.String()+".ics", data)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		utils.Logger.WithError(err).Warn("Failed to write attachment")
	}
}
