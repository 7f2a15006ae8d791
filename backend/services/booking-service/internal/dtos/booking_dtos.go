package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
)

// BookingRequest is used for both create and full update. Check-in must be
// strictly before check-out; the service reports that as a 400 with its
// own code rather than a validator tag.
type BookingRequest struct {
	RoomID         uuid.UUID `json:"room_id" validate:"required"`
	ClientName     string    `json:"client_name" validate:"required,max=200"`
	ClientPhone    string    `json:"client_phone" validate:"required,max=32"`
	ClientEmail    *string   `json:"client_email,omitempty" validate:"omitempty,email"`
	Adults         int       `json:"adults" validate:"gte=1,lte=50"`
	Children       int       `json:"children" validate:"gte=0,lte=50"`
	DoorCode       *string   `json:"door_code,omitempty" validate:"omitempty,max=50"`
	AdditionalInfo *string   `json:"additional_info,omitempty" validate:"omitempty,max=2000"`
	DailyPrice     float64   `json:"daily_price" validate:"gte=0"`
	Paid           bool      `json:"paid"`
	CheckIn        time.Time `json:"check_in" validate:"required"`
	CheckOut       time.Time `json:"check_out" validate:"required"`
	RowVersion     *int64    `json:"row_version,omitempty"`
}

// BookingConflictDetails is the `details` of a 409 booking_conflict.
type BookingConflictDetails struct {
	Conflicts []*models.Booking `json:"conflicts"`
}

// BookingListQuery mirrors ?from=&to=&room_id= on the list endpoint.
type BookingListQuery struct {
	From   *time.Time
	To     *time.Time
	RoomID *uuid.UUID
}
