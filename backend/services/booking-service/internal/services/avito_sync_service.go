package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/metrics"
	internal_utils "github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils/avito"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"golang.org/x/sync/errgroup"
)

const (
	avitoFetchConcurrency = 4
	avitoStatusCanceled   = "canceled"
)

// AvitoSyncService pulls listing bookings into the calendar and pushes new
// calendar bookings out to the listing.
type AvitoSyncService interface {
	// SyncOwner fetches every linked listing concurrently and applies the
	// result in one transaction. Any fetch failure aborts before writing.
	SyncOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*dtos.AvitoSyncReport, error)
	// SyncAll runs SyncOwner for every connected owner; failures are logged.
	SyncAll(ctx context.Context) error
	// DefaultWindow is the [from, to) window used when callers give none.
	DefaultWindow(now time.Time) (time.Time, time.Time)

	BookingPusher
}

type avitoSyncService struct {
	cfg         *config.Config
	api         AvitoAPI
	tokens      AvitoTokenService
	roomRepo    repositories.RoomRepository
	bookingRepo repositories.BookingRepository
	credRepo    repositories.AvitoCredentialRepository
	loc         *time.Location
}

func NewAvitoSyncService(
	cfg *config.Config,
	api AvitoAPI,
	tokens AvitoTokenService,
	roomRepo repositories.RoomRepository,
	bookingRepo repositories.BookingRepository,
	credRepo repositories.AvitoCredentialRepository,
) AvitoSyncService {
	return &avitoSyncService{
		cfg:         cfg,
		api:         api,
		tokens:      tokens,
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		credRepo:    credRepo,
		loc:         constants.AvitoLocation(),
	}
}

func (s *avitoSyncService) DefaultWindow(now time.Time) (time.Time, time.Time) {
	from := internal_utils.StartOfDay(now.In(s.loc))
	return from, from.AddDate(0, 0, s.cfg.AvitoSyncDays)
}

func (s *avitoSyncService) SyncOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*dtos.AvitoSyncReport, error) {
	logger := utils.Logger.WithField("operation", "AvitoSync").WithField("owner_id", ownerID)
	if !from.Before(to) {
		return nil, invalidDateRange()
	}

	access, cred, err := s.tokens.AccessToken(ctx, ownerID)
	if err != nil {
		metrics.IncAvitoSyncRun("failed")
		return nil, err
	}

	rooms, err := s.roomRepo.ListLinkedToAvito(ctx, ownerID)
	if err != nil {
		metrics.IncAvitoSyncRun("failed")
		return nil, err
	}
	report := &dtos.AvitoSyncReport{Rooms: len(rooms)}
	if len(rooms) == 0 {
		metrics.IncAvitoSyncRun("empty")
		return report, nil
	}

	// Fan-out: one fetch per listing, first failure cancels the rest.
	fetched := make([][]avito.Booking, len(rooms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(avitoFetchConcurrency)
	for i, room := range rooms {
		g.Go(func() error {
			list, err := s.api.ListBookings(gctx, access, cred.AvitoUserID, *room.AvitoItemID, from, to)
			if err != nil {
				logger.WithError(err).WithField("room_id", room.ID).Warn("avito listing fetch failed")
				return err
			}
			fetched[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.IncAvitoSyncRun("failed")
		return nil, mapAvitoErr(err)
	}

	// Fan-in: diff against stored bookings, then one write.
	existing, err := s.bookingRepo.ListByOwner(ctx, ownerID, repositories.BookingFilter{})
	if err != nil {
		metrics.IncAvitoSyncRun("failed")
		return nil, err
	}
	byAvitoID := make(map[int64]*models.Booking, len(existing))
	for _, b := range existing {
		if b.AvitoBookingID != nil {
			byAvitoID[*b.AvitoBookingID] = b
		}
	}

	var updates, inserts []*models.Booking
	seen := map[int64]struct{}{}
	for i, room := range rooms {
		for _, ab := range fetched[i] {
			if ab.Status == avitoStatusCanceled {
				continue
			}
			if _, dup := seen[ab.AvitoBookingID]; dup {
				continue
			}
			seen[ab.AvitoBookingID] = struct{}{}

			if CheckRoomBookable(room) != nil {
				report.Skipped++
				continue
			}
			incoming, ok := s.toBooking(ownerID, room.ID, ab)
			if !ok {
				report.Skipped++
				continue
			}
			if cur, found := byAvitoID[ab.AvitoBookingID]; found {
				if merged, changed := mergeSynced(cur, incoming); changed {
					updates = append(updates, merged)
				}
				continue
			}
			if incoming.Adults <= 0 {
				incoming.Adults = 1
			}
			inserts = append(inserts, incoming)
		}
	}

	if len(updates) > 0 || len(inserts) > 0 {
		res, err := s.bookingRepo.ApplySync(ctx, ownerID, updates, inserts)
		if err != nil {
			metrics.IncAvitoSyncRun("failed")
			return nil, err
		}
		report.Inserted = res.Inserted
		report.Updated = res.Updated
		report.Skipped += res.Skipped
	}

	metrics.IncAvitoSyncRun("ok")
	metrics.AddAvitoSyncBookings(report.Inserted, report.Updated, report.Skipped)
	logger.WithField("rooms", report.Rooms).
		WithField("inserted", report.Inserted).
		WithField("updated", report.Updated).
		WithField("skipped", report.Skipped).
		Info("avito sync completed")
	return report, nil
}

func (s *avitoSyncService) SyncAll(ctx context.Context) error {
	ids, err := s.credRepo.ListUserIDs(ctx)
	if err != nil {
		utils.Logger.WithError(err).Error("avito sync: failed to list connected owners")
		return err
	}
	from, to := s.DefaultWindow(time.Now())
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		octx, cancel := context.WithTimeout(ctx, constants.AvitoSyncPerOwnerLimit)
		if _, err := s.SyncOwner(octx, id, from, to); err != nil {
			utils.Logger.WithError(err).WithField("owner_id", id).Error("scheduled avito sync failed")
		}
		cancel()
	}
	return nil
}

// PushBooking blocks the booking's days on the linked listing. It runs with
// its own timeout and only logs failures.
func (s *avitoSyncService) PushBooking(ctx context.Context, room *models.Room, b *models.Booking) {
	if room.AvitoItemID == nil {
		return
	}
	logger := utils.Logger.WithField("operation", "AvitoPush").
		WithField("booking_id", b.ID).
		WithField("item_id", *room.AvitoItemID)

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.AvitoPushTimeout)
	defer cancel()

	access, cred, err := s.tokens.AccessToken(pctx, b.UserID)
	if err != nil {
		logger.WithError(err).Warn("skipping avito push")
		return
	}

	start := internal_utils.StartOfDay(b.CheckIn.In(s.loc))
	end := internal_utils.StartOfDay(b.CheckOut.In(s.loc))
	if !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	req := avito.CreateBookingRequest{
		Source: constants.AvitoSyncSource,
		Bookings: []avito.BookingInterval{{
			DateStart: avito.Date{Time: start},
			DateEnd:   avito.Date{Time: end},
			Type:      constants.AvitoPushType,
			Comment:   b.ClientName,
		}},
	}
	if err := s.api.CreateBooking(pctx, access, cred.AvitoUserID, *room.AvitoItemID, req); err != nil {
		logger.WithError(err).Warn("avito push failed")
		return
	}
	logger.Info("booking pushed to avito")
}

// toBooking maps a listing booking onto a new calendar booking. Avito dates
// carry no time, so house check-in/check-out hours are applied.
func (s *avitoSyncService) toBooking(ownerID, roomID uuid.UUID, ab avito.Booking) (*models.Booking, bool) {
	if ab.CheckIn.IsZero() || ab.CheckOut.IsZero() {
		return nil, false
	}
	y, m, d := ab.CheckIn.Date()
	checkIn := time.Date(y, m, d, constants.AvitoCheckInHour, 0, 0, 0, s.loc)
	y, m, d = ab.CheckOut.Date()
	checkOut := time.Date(y, m, d, constants.AvitoCheckOutHour, 0, 0, 0, s.loc)
	if !checkIn.Before(checkOut) {
		return nil, false
	}

	nights := ab.Nights
	if nights <= 0 {
		nights = int(math.Round(ab.CheckOut.Sub(ab.CheckIn.Time).Hours() / 24))
	}
	var daily float64
	if ab.BasePrice > 0 && nights > 0 {
		daily = math.Round(ab.BasePrice/float64(nights)*100) / 100
	}

	id := ab.AvitoBookingID
	b := &models.Booking{
		ID:             uuid.New(),
		RoomID:         roomID,
		UserID:         ownerID,
		ClientName:     utils.FirstNonEmpty(ab.Contact.Name, constants.AvitoFallbackName),
		ClientPhone:    utils.NormalizePhone(ab.Contact.Phone),
		Adults:         ab.GuestCount,
		DailyPrice:     daily,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		AvitoBookingID: &id,
	}
	if email := utils.NormalizeEmail(ab.Contact.Email); email != "" && utils.IsValidEmail(email) {
		b.ClientEmail = &email
	}
	return b, true
}

// mergeSynced overlays listing data on a stored booking. Fields Avito does
// not know about (door code, paid, notes) are kept, as are contact fields
// and the price when Avito sends them empty.
func mergeSynced(cur, in *models.Booking) (*models.Booking, bool) {
	next := *cur
	next.RoomID = in.RoomID
	next.CheckIn = in.CheckIn
	next.CheckOut = in.CheckOut
	if in.ClientName != constants.AvitoFallbackName {
		next.ClientName = in.ClientName
	}
	if in.ClientPhone != "" {
		next.ClientPhone = in.ClientPhone
	}
	if in.ClientEmail != nil {
		next.ClientEmail = in.ClientEmail
	}
	if in.Adults > 0 {
		next.Adults = in.Adults
	}
	if in.DailyPrice > 0 {
		next.DailyPrice = in.DailyPrice
	}

	changed := next.RoomID != cur.RoomID ||
		!next.CheckIn.Equal(cur.CheckIn) ||
		!next.CheckOut.Equal(cur.CheckOut) ||
		next.ClientName != cur.ClientName ||
		next.ClientPhone != cur.ClientPhone ||
		utils.Val(next.ClientEmail) != utils.Val(cur.ClientEmail) ||
		next.Adults != cur.Adults ||
		next.DailyPrice != cur.DailyPrice
	return &next, changed
}
