package dtos

import "github.com/rikster-r/booking-calendar/backend/shared/go-models"

type CreateRoomRequest struct {
	Name        string             `json:"name" validate:"required,max=100"`
	Color       string             `json:"color" validate:"omitempty,hexcolor"`
	Status      *models.RoomStatus `json:"status,omitempty"`
	AvitoLink   *string            `json:"avito_link,omitempty" validate:"omitempty,url"`
	AvitoItemID *int64             `json:"avito_item_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateRoomRequest is partial. An empty AvitoLink unlinks the room.
// Cleaners may only send Status.
type UpdateRoomRequest struct {
	Name        *string            `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Color       *string            `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Status      *models.RoomStatus `json:"status,omitempty"`
	AvitoLink   *string            `json:"avito_link,omitempty" validate:"omitempty,max=500"`
	AvitoItemID *int64             `json:"avito_item_id,omitempty" validate:"omitempty,gte=0"`
	RowVersion  *int64             `json:"row_version,omitempty"`
}

// UpdateRoomStatusRequest is the cleaner-facing status switch.
type UpdateRoomStatusRequest struct {
	Status     models.RoomStatus `json:"status" validate:"required"`
	RowVersion *int64            `json:"row_version,omitempty"`
}

type AvailabilityResponse struct {
	Available bool              `json:"available"`
	Conflicts []*models.Booking `json:"conflicts"`
}
