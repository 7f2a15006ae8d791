package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/metrics"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/twilio/twilio-go"
)

// BookingPusher mirrors a freshly created booking to a linked listing.
// Implementations must not fail the caller.
type BookingPusher interface {
	PushBooking(ctx context.Context, room *models.Room, b *models.Booking)
}

type BookingService interface {
	ListBookings(ctx context.Context, ownerID uuid.UUID, q dtos.BookingListQuery) ([]*models.Booking, error)
	GetBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*models.Booking, error)
	CreateBooking(ctx context.Context, ownerID uuid.UUID, req dtos.BookingRequest) (*models.Booking, error)
	UpdateBooking(ctx context.Context, ownerID, bookingID uuid.UUID, req dtos.BookingRequest) (*models.Booking, error)
	DeleteBooking(ctx context.Context, ownerID, bookingID uuid.UUID) error
	CheckAvailability(ctx context.Context, ownerID, roomID uuid.UUID, checkIn, checkOut time.Time) (*dtos.AvailabilityResponse, error)
}

type bookingService struct {
	cfg         *config.Config
	bookingRepo repositories.BookingRepository
	roomRepo    repositories.RoomRepository
	twilio      *twilio.RestClient
	pusher      BookingPusher
}

// NewBookingService wires the booking rules. twilioClient and pusher may be nil.
func NewBookingService(
	cfg *config.Config,
	bookingRepo repositories.BookingRepository,
	roomRepo repositories.RoomRepository,
	twilioClient *twilio.RestClient,
	pusher BookingPusher,
) BookingService {
	return &bookingService{
		cfg:         cfg,
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		twilio:      twilioClient,
		pusher:      pusher,
	}
}

func (s *bookingService) ListBookings(ctx context.Context, ownerID uuid.UUID, q dtos.BookingListQuery) ([]*models.Booking, error) {
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		return nil, invalidDateRange()
	}
	list, err := s.bookingRepo.ListByOwner(ctx, ownerID, repositories.BookingFilter{
		From:   q.From,
		To:     q.To,
		RoomID: q.RoomID,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Booking{}
	}
	return list, nil
}

func (s *bookingService) GetBooking(ctx context.Context, ownerID, bookingID uuid.UUID) (*models.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil || b.UserID != ownerID {
		return nil, notFound("Booking")
	}
	return b, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, ownerID uuid.UUID, req dtos.BookingRequest) (*models.Booking, error) {
	logger := utils.Logger.WithField("operation", "CreateBooking").WithField("owner_id", ownerID)

	room, err := s.bookableRoom(ctx, ownerID, req.RoomID)
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		ID:     uuid.New(),
		UserID: ownerID,
	}
	if err := s.fill(ctx, b, req); err != nil {
		return nil, err
	}

	if err := s.bookingRepo.CreateIfNoOverlap(ctx, b); err != nil {
		return nil, s.writeErr(ctx, b, err)
	}
	logger.WithField("booking_id", b.ID).Info("booking created")

	if s.pusher != nil && room.AvitoItemID != nil {
		s.pusher.PushBooking(ctx, room, b)
	}
	return b, nil
}

func (s *bookingService) UpdateBooking(
	ctx context.Context,
	ownerID, bookingID uuid.UUID,
	req dtos.BookingRequest,
) (*models.Booking, error) {
	current, err := s.GetBooking(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !current.MatchesVersion(req.RowVersion) {
		return nil, versionConflict(current)
	}
	if _, err := s.bookableRoom(ctx, ownerID, req.RoomID); err != nil {
		return nil, err
	}

	next := *current
	if err := s.fill(ctx, &next, req); err != nil {
		return nil, err
	}

	if err := s.bookingRepo.UpdateIfNoOverlap(ctx, &next, current.RowVersion); err != nil {
		if errors.Is(err, utils.ErrRowVersionConflict) {
			latest, gErr := s.bookingRepo.GetByID(ctx, bookingID)
			if gErr == nil && latest != nil {
				return nil, versionConflict(latest)
			}
			return nil, notFound("Booking")
		}
		return nil, s.writeErr(ctx, &next, err)
	}
	return &next, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, ownerID, bookingID uuid.UUID) error {
	if _, err := s.GetBooking(ctx, ownerID, bookingID); err != nil {
		return err
	}
	if err := s.bookingRepo.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return notFound("Booking")
		}
		return err
	}
	return nil
}

func (s *bookingService) CheckAvailability(
	ctx context.Context,
	ownerID, roomID uuid.UUID,
	checkIn, checkOut time.Time,
) (*dtos.AvailabilityResponse, error) {
	if !checkIn.Before(checkOut) {
		return nil, invalidDateRange()
	}
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil || room.UserID != ownerID {
		return nil, notFound("Room")
	}

	conflicts, err := s.bookingRepo.FindOverlapping(ctx, repositories.OverlapQuery{
		RoomID:  roomID,
		OwnerID: ownerID,
		Start:   checkIn,
		End:     checkOut,
	})
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []*models.Booking{}
	}
	return &dtos.AvailabilityResponse{
		Available: len(conflicts) == 0 && room.Status.Bookable(),
		Conflicts: conflicts,
	}, nil
}

// bookableRoom loads the room, hides other owners' rooms and applies the
// readiness gate.
func (s *bookingService) bookableRoom(ctx context.Context, ownerID, roomID uuid.UUID) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil || room.UserID != ownerID {
		return nil, notFound("Room")
	}
	if err := CheckRoomBookable(room); err != nil {
		return nil, err
	}
	return room, nil
}

// fill validates req and copies it onto b. Avito linkage is left untouched.
func (s *bookingService) fill(ctx context.Context, b *models.Booking, req dtos.BookingRequest) error {
	if !req.CheckIn.Before(req.CheckOut) {
		return invalidDateRange()
	}

	phone := utils.NormalizePhone(req.ClientPhone)
	ok, err := utils.ValidatePhoneNumber(ctx, phone, s.cfg.Flag_ValidatePhoneWithTwilio, s.twilio)
	if err != nil {
		return err
	}
	if !ok {
		return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Invalid phone number", utils.ErrInvalidPhone)
	}

	var email *string
	if req.ClientEmail != nil && strings.TrimSpace(*req.ClientEmail) != "" {
		e := utils.NormalizeEmail(*req.ClientEmail)
		if !utils.IsValidEmail(e) {
			return validationError("Invalid client email")
		}
		email = &e
	}

	b.RoomID = req.RoomID
	b.ClientName = strings.TrimSpace(req.ClientName)
	b.ClientPhone = phone
	b.ClientEmail = email
	b.Adults = req.Adults
	b.Children = req.Children
	b.DoorCode = req.DoorCode
	b.AdditionalInfo = req.AdditionalInfo
	b.DailyPrice = req.DailyPrice
	b.Paid = req.Paid
	b.CheckIn = req.CheckIn
	b.CheckOut = req.CheckOut
	return nil
}

// writeErr turns repository write errors into responses. A conflict found
// only by the exclusion constraint carries no rows, so they are re-read.
func (s *bookingService) writeErr(ctx context.Context, b *models.Booking, err error) error {
	var conflict *repositories.BookingConflictError
	switch {
	case errors.As(err, &conflict):
		metrics.IncBookingConflict()
		conflicts := conflict.Conflicts
		if len(conflicts) == 0 {
			q := repositories.OverlapQuery{RoomID: b.RoomID, OwnerID: b.UserID, Start: b.CheckIn, End: b.CheckOut}
			if b.RowVersion > 0 {
				q.ExcludeID = &b.ID
			}
			conflicts, _ = s.bookingRepo.FindOverlapping(ctx, q)
		}
		return &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeBookingConflict,
			Message:    "Booking overlaps an existing booking",
			Details:    dtos.BookingConflictDetails{Conflicts: conflicts},
			Err:        err,
		}
	case errors.Is(err, utils.ErrNotFound):
		return notFound("Room")
	}
	return err
}
