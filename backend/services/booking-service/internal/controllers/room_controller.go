package controllers

import (
	"net/http"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/routes"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type RoomController struct {
	roomService    services.RoomService
	bookingService services.BookingService
}

func NewRoomController(roomService services.RoomService, bookingService services.BookingService) *RoomController {
	return &RoomController{roomService: roomService, bookingService: bookingService}
}

// ListRooms => GET /api/users/{id}/rooms
func (c *RoomController) ListRooms(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	rooms, err := c.roomService.ListRooms(r.Context(), actor.OwnerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}
	utils.RespondWithJSON(w, http.StatusOK, rooms)
}

// CreateRoom => POST /api/users/{id}/rooms
func (c *RoomController) CreateRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.CreateRoomRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	room, err := c.roomService.CreateRoom(r.Context(), actor.OwnerID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, room)
}

// GetRoom => GET /api/users/{id}/rooms/{roomId}
func (c *RoomController) GetRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}

	room, err := c.roomService.GetRoom(r.Context(), actor.OwnerID, roomID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, room)
}

// UpdateRoom => PUT /api/users/{id}/rooms/{roomId}
func (c *RoomController) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}

	var req dtos.UpdateRoomRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	room, err := c.roomService.UpdateRoom(r.Context(), actor.User, actor.OwnerID, roomID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, room)
}

// UpdateStatus => PUT /api/users/{id}/rooms/{roomId}/status
func (c *RoomController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}

	var req dtos.UpdateRoomStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	room, err := c.roomService.UpdateStatus(r.Context(), actor.User, actor.OwnerID, roomID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, room)
}

// DeleteRoom => DELETE /api/users/{id}/rooms/{roomId}
func (c *RoomController) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}

	if err := c.roomService.DeleteRoom(r.Context(), actor.OwnerID, roomID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Availability => GET /api/users/{id}/rooms/{roomId}/availability?check_in&check_out
func (c *RoomController) Availability(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, routes.VarRoomID)
	if !ok {
		return
	}

	checkIn, err := requiredTimeParam(r, "check_in")
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err)
		return
	}
	checkOut, err := requiredTimeParam(r, "check_out")
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err)
		return
	}

	resp, err := c.bookingService.CheckAvailability(r.Context(), actor.OwnerID, roomID, checkIn, checkOut)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
