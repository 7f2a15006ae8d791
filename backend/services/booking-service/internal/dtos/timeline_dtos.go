package dtos

import (
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
)

type TimelineDay struct {
	Date        string `json:"date"`
	Weekday     int    `json:"weekday"`
	Weekend     bool   `json:"weekend"`
	Holiday     bool   `json:"holiday"`
	HolidayName string `json:"holiday_name,omitempty"`
}

type TimelineBar struct {
	Booking  *models.Booking       `json:"booking"`
	Geometry utils.BookingGeometry `json:"geometry"`
}

type TimelineRoom struct {
	Room     *models.Room  `json:"room"`
	Bookings []TimelineBar `json:"bookings"`
}

type TimelineResponse struct {
	Start      string         `json:"start"`
	End        string         `json:"end"`
	CellWidth  float64        `json:"cell_width"`
	HourlyRate float64        `json:"hourly_rate"`
	Days       []TimelineDay  `json:"days"`
	Rooms      []TimelineRoom `json:"rooms"`
}
