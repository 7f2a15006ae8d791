package seeding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

var demoRooms = []struct {
	id     string
	name   string
	color  string
	status models.RoomStatus
}{
	{"44444444-0000-0000-0000-000000000001", "Studio on Lenina", "#4f46e5", models.RoomStatusReady},
	{"44444444-0000-0000-0000-000000000002", "Loft by the river", "#0ea5e9", models.RoomStatusCleaning},
	{"44444444-0000-0000-0000-000000000003", "Two-room flat", "#f97316", models.RoomStatusNotReady},
}

// SeedDemoRooms creates the demo owner's rooms and a few bookings around
// now. Stays run 14:00 to 12:00 in now's location.
func SeedDemoRooms(
	ctx context.Context,
	roomRepo repositories.RoomRepository,
	bookingRepo repositories.BookingRepository,
	now time.Time,
) error {
	ownerID := uuid.MustParse(DefaultOwnerID)

	var created []*models.Room
	for _, d := range demoRooms {
		id := uuid.MustParse(d.id)
		existing, err := roomRepo.GetByID(ctx, id)
		if err != nil && !errors.Is(err, utils.ErrNotFound) {
			return fmt.Errorf("check existing room %s: %w", id, err)
		}
		if existing != nil {
			continue
		}

		room := &models.Room{ID: id, UserID: ownerID, Name: d.name, Color: d.color, Status: d.status}
		if err := roomRepo.Create(ctx, room); err != nil {
			return fmt.Errorf("create room %q: %w", d.name, err)
		}
		created = append(created, room)
	}
	if len(created) == 0 {
		utils.Logger.Info("seeding: demo rooms already present; skipping")
		return nil
	}

	y, m, d := now.Date()
	day := func(offset, hour int) time.Time {
		return time.Date(y, m, d+offset, hour, 0, 0, 0, now.Location())
	}

	for i, room := range created {
		stays := [][2]int{{-2, 1}, {1, 4}, {6, 9}}
		for j, s := range stays {
			b := &models.Booking{
				ID:          uuid.New(),
				RoomID:      room.ID,
				UserID:      ownerID,
				ClientName:  fmt.Sprintf("Guest %d-%d", i+1, j+1),
				ClientPhone: fmt.Sprintf("+7999000%02d%02d", i+1, j+1),
				Adults:      2,
				DailyPrice:  float64(3000 + 500*i),
				Paid:        j == 0,
				CheckIn:     day(s[0]+i, 14),
				CheckOut:    day(s[1]+i, 12),
			}
			if err := bookingRepo.CreateIfNoOverlap(ctx, b); err != nil {
				if errors.Is(err, utils.ErrBookingConflict) {
					continue
				}
				return fmt.Errorf("create demo booking for %q: %w", room.Name, err)
			}
		}
	}

	utils.Logger.Infof("seeding: created %d demo rooms with bookings", len(created))
	return nil
}

// Repos is what SeedAll writes to.
type Repos struct {
	Users    repositories.UserRepository
	Rooms    repositories.RoomRepository
	Bookings repositories.BookingRepository
}

// SeedAll is idempotent; running it on every start is safe.
func SeedAll(ctx context.Context, r Repos, now time.Time) error {
	if err := SeedDefaultAdmin(ctx, r.Users); err != nil {
		return err
	}
	if err := SeedDemoOwner(ctx, r.Users); err != nil {
		return err
	}
	return SeedDemoRooms(ctx, r.Rooms, r.Bookings, now)
}
