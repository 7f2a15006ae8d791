package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	internal_utils "github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
)

// TimelineService lays an owner's rooms and bookings out on the horizontal
// calendar grid.
type TimelineService interface {
	Build(ctx context.Context, ownerID uuid.UUID, start time.Time, days int) (*dtos.TimelineResponse, error)
}

type timelineService struct {
	cellWidth   float64
	roomRepo    repositories.RoomRepository
	bookingRepo repositories.BookingRepository
}

func NewTimelineService(
	cfg *config.Config,
	roomRepo repositories.RoomRepository,
	bookingRepo repositories.BookingRepository,
) TimelineService {
	width := cfg.TimelineCellWidth
	if width <= 0 {
		width = config.DefaultTimelineCellWidth
	}
	return &timelineService{cellWidth: width, roomRepo: roomRepo, bookingRepo: bookingRepo}
}

func (s *timelineService) Build(ctx context.Context, ownerID uuid.UUID, start time.Time, days int) (*dtos.TimelineResponse, error) {
	switch {
	case days <= 0:
		days = constants.DefaultTimelineDays
	case days > constants.MaxTimelineDays:
		days = constants.MaxTimelineDays
	}

	dayList := internal_utils.DayRange(start, days)
	first, last := dayList[0], dayList[len(dayList)-1]
	cutoff := internal_utils.TimelineCutoff(first)
	windowEnd := last.AddDate(0, 0, 1)

	rooms, err := s.roomRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.ListByOwner(ctx, ownerID, repositories.BookingFilter{
		From: &cutoff,
		To:   &windowEnd,
	})
	if err != nil {
		return nil, err
	}

	rate := internal_utils.HourlyRate(s.cellWidth)
	resp := &dtos.TimelineResponse{
		Start:      first.Format(time.DateOnly),
		End:        last.Format(time.DateOnly),
		CellWidth:  s.cellWidth,
		HourlyRate: rate,
		Days:       make([]dtos.TimelineDay, 0, len(dayList)),
		Rooms:      make([]dtos.TimelineRoom, 0, len(rooms)),
	}

	for _, d := range dayList {
		resp.Days = append(resp.Days, dtos.TimelineDay{
			Date:        d.Format(time.DateOnly),
			Weekday:     int(d.Weekday()),
			Weekend:     internal_utils.IsWeekend(d),
			Holiday:     internal_utils.IsHoliday(d),
			HolidayName: internal_utils.HolidayName(d),
		})
	}

	byRoom := make(map[uuid.UUID][]*models.Booking, len(rooms))
	for _, b := range bookings {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	for _, room := range rooms {
		row := dtos.TimelineRoom{Room: room, Bookings: []dtos.TimelineBar{}}
		for _, b := range byRoom[room.ID] {
			geo := internal_utils.ComputeBookingGeometry(
				b.CheckIn.In(first.Location()),
				b.CheckOut.In(first.Location()),
				first, last, rate,
			)
			if !geo.Visible {
				continue
			}
			row.Bookings = append(row.Bookings, dtos.TimelineBar{Booking: b, Geometry: geo})
		}
		resp.Rooms = append(resp.Rooms, row)
	}
	return resp, nil
}
