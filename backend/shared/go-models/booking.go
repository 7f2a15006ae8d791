// go-models/booking.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	Versioned
	ID             uuid.UUID `json:"id"`
	RoomID         uuid.UUID `json:"room_id"`
	UserID         uuid.UUID `json:"user_id"`
	ClientName     string    `json:"client_name"`
	ClientPhone    string    `json:"client_phone"`
	ClientEmail    *string   `json:"client_email,omitempty"`
	Adults         int       `json:"adults"`
	Children       int       `json:"children"`
	DoorCode       *string   `json:"door_code,omitempty"`
	AdditionalInfo *string   `json:"additional_info,omitempty"`
	DailyPrice     float64   `json:"daily_price"`
	Paid           bool      `json:"paid"`
	CheckIn        time.Time `json:"check_in"`
	CheckOut       time.Time `json:"check_out"`
	AvitoBookingID *int64    `json:"avito_booking_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (b *Booking) GetID() string { return b.ID.String() }

// Nights is the number of started days between check-in and check-out.
func (b *Booking) Nights() int {
	d := b.CheckOut.Sub(b.CheckIn)
	n := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		n++
	}
	return n
}

func (b *Booking) TotalPrice() float64 {
	return float64(b.Nights()) * b.DailyPrice
}
