package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils/avito"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type RoomService interface {
	ListRooms(ctx context.Context, ownerID uuid.UUID) ([]*models.Room, error)
	GetRoom(ctx context.Context, ownerID, roomID uuid.UUID) (*models.Room, error)
	CreateRoom(ctx context.Context, ownerID uuid.UUID, req dtos.CreateRoomRequest) (*models.Room, error)
	UpdateRoom(ctx context.Context, actor *models.User, ownerID, roomID uuid.UUID, req dtos.UpdateRoomRequest) (*models.Room, error)
	UpdateStatus(ctx context.Context, actor *models.User, ownerID, roomID uuid.UUID, req dtos.UpdateRoomStatusRequest) (*models.Room, error)
	DeleteRoom(ctx context.Context, ownerID, roomID uuid.UUID) error
}

type roomService struct {
	roomRepo repositories.RoomRepository
}

func NewRoomService(roomRepo repositories.RoomRepository) RoomService {
	return &roomService{roomRepo: roomRepo}
}

// CheckRoomBookable is the readiness gate applied before any booking write.
func CheckRoomBookable(room *models.Room) error {
	if room.Status.Bookable() {
		return nil
	}
	return &utils.AppError{
		StatusCode: http.StatusBadRequest,
		Code:       utils.ErrCodeRoomNotReady,
		Message:    "Room is not ready for bookings",
		Err:        utils.ErrRoomNotReady,
	}
}

func (s *roomService) ListRooms(ctx context.Context, ownerID uuid.UUID) ([]*models.Room, error) {
	rooms, err := s.roomRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}
	return rooms, nil
}

// GetRoom hides rooms of other owners behind a 404.
func (s *roomService) GetRoom(ctx context.Context, ownerID, roomID uuid.UUID) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil || room.UserID != ownerID {
		return nil, notFound("Room")
	}
	return room, nil
}

func (s *roomService) CreateRoom(ctx context.Context, ownerID uuid.UUID, req dtos.CreateRoomRequest) (*models.Room, error) {
	room := &models.Room{
		ID:     uuid.New(),
		UserID: ownerID,
		Name:   strings.TrimSpace(req.Name),
		Status: models.RoomStatusReady,
		Color:  utils.FirstNonEmpty(req.Color, constants.DefaultRoomColor),
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, validationError("Unknown room status")
		}
		room.Status = *req.Status
	}
	if err := applyAvitoLink(room, req.AvitoLink, req.AvitoItemID); err != nil {
		return nil, err
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}
	utils.Logger.WithField("room_id", room.ID).WithField("owner_id", ownerID).Info("room created")
	return room, nil
}

func (s *roomService) UpdateRoom(
	ctx context.Context,
	actor *models.User,
	ownerID, roomID uuid.UUID,
	req dtos.UpdateRoomRequest,
) (*models.Room, error) {
	if actor.Role == models.RoleCleaner &&
		(req.Name != nil || req.Color != nil || req.AvitoLink != nil || req.AvitoItemID != nil) {
		return nil, forbidden("Cleaners may only change room status")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, validationError("Unknown room status")
	}

	return s.update(ctx, ownerID, roomID, req.RowVersion, func(room *models.Room) error {
		if req.Name != nil {
			room.Name = strings.TrimSpace(*req.Name)
		}
		if req.Color != nil {
			room.Color = *req.Color
		}
		if req.Status != nil {
			setStatus(room, *req.Status, actor.ID)
		}
		if req.AvitoLink != nil || req.AvitoItemID != nil {
			return applyAvitoLink(room, req.AvitoLink, req.AvitoItemID)
		}
		return nil
	})
}

func (s *roomService) UpdateStatus(
	ctx context.Context,
	actor *models.User,
	ownerID, roomID uuid.UUID,
	req dtos.UpdateRoomStatusRequest,
) (*models.Room, error) {
	if !req.Status.Valid() {
		return nil, validationError("Unknown room status")
	}
	return s.update(ctx, ownerID, roomID, req.RowVersion, func(room *models.Room) error {
		setStatus(room, req.Status, actor.ID)
		return nil
	})
}

func (s *roomService) DeleteRoom(ctx context.Context, ownerID, roomID uuid.UUID) error {
	if _, err := s.GetRoom(ctx, ownerID, roomID); err != nil {
		return err
	}
	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return notFound("Room")
		}
		return err
	}
	utils.Logger.WithField("room_id", roomID).Info("room deleted with its bookings and comments")
	return nil
}

func (s *roomService) update(
	ctx context.Context,
	ownerID, roomID uuid.UUID,
	expected *int64,
	mutate func(*models.Room) error,
) (*models.Room, error) {
	room, err := s.GetRoom(ctx, ownerID, roomID)
	if err != nil {
		return nil, err
	}
	if !room.MatchesVersion(expected) {
		return nil, versionConflict(room)
	}

	version := room.RowVersion
	if err := mutate(room); err != nil {
		return nil, err
	}
	if err := s.roomRepo.UpdateExpected(ctx, room, version); err != nil {
		if errors.Is(err, utils.ErrRowVersionConflict) {
			latest, gErr := s.roomRepo.GetByID(ctx, roomID)
			if gErr == nil && latest != nil {
				return nil, versionConflict(latest)
			}
			return nil, versionConflict(nil)
		}
		return nil, err
	}

	// Re-read for the joined cleaner name.
	fresh, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil || fresh == nil {
		return room, nil
	}
	return fresh, nil
}

// setStatus stamps who cleaned the room when it becomes ready again.
func setStatus(room *models.Room, status models.RoomStatus, actorID uuid.UUID) {
	if status == models.RoomStatusReady && room.Status != models.RoomStatusReady {
		now := time.Now()
		room.LastCleanedAt = &now
		room.LastCleanedBy = &actorID
	}
	room.Status = status
}

// applyAvitoLink links or unlinks a listing. An explicit item id wins over
// the one parsed from the link; an empty link or a zero id unlinks.
func applyAvitoLink(room *models.Room, link *string, itemID *int64) error {
	if link != nil {
		trimmed := strings.TrimSpace(*link)
		if trimmed == "" {
			room.AvitoLink = nil
			room.AvitoItemID = nil
			return nil
		}
		room.AvitoLink = &trimmed
		if itemID == nil {
			id, ok := avito.ItemIDFromURL(trimmed)
			if !ok {
				return validationError("avito_link must be an Avito listing URL")
			}
			room.AvitoItemID = &id
			return nil
		}
	}
	if itemID != nil {
		if *itemID <= 0 {
			room.AvitoItemID = nil
			if link == nil {
				room.AvitoLink = nil
			}
			return nil
		}
		id := *itemID
		room.AvitoItemID = &id
	}
	return nil
}
