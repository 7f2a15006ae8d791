// go-models/room.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomStatusNotReady RoomStatus = "not ready"
	RoomStatusReady    RoomStatus = "ready"
	RoomStatusCleaning RoomStatus = "cleaning"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusNotReady, RoomStatusReady, RoomStatusCleaning:
		return true
	}
	return false
}

// Bookable reports whether bookings may be written against a room in this status.
func (s RoomStatus) Bookable() bool {
	return s != RoomStatusNotReady
}

type Room struct {
	Versioned
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Name              string     `json:"name"`
	Status            RoomStatus `json:"status"`
	Color             string     `json:"color"`
	LastCleanedAt     *time.Time `json:"last_cleaned_at,omitempty"`
	LastCleanedBy     *uuid.UUID `json:"last_cleaned_by,omitempty"`
	LastCleanedByName *string    `json:"last_cleaned_by_name,omitempty"`
	AvitoLink         *string    `json:"avito_link,omitempty"`
	AvitoItemID       *int64     `json:"avito_item_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (r *Room) GetID() string { return r.ID.String() }
