package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// CommentService manages notes left on a room by the owner and their
// cleaners. Only the author edits; the author, the room owner or an admin
// may delete.
type CommentService interface {
	ListComments(ctx context.Context, ownerID, roomID uuid.UUID) ([]*models.Comment, error)
	CreateComment(ctx context.Context, actor *models.User, ownerID, roomID uuid.UUID, body string) (*models.Comment, error)
	UpdateComment(ctx context.Context, actor *models.User, ownerID, roomID, commentID uuid.UUID, body string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor *models.User, ownerID, roomID, commentID uuid.UUID) error
}

type commentService struct {
	commentRepo repositories.CommentRepository
	roomRepo    repositories.RoomRepository
}

func NewCommentService(commentRepo repositories.CommentRepository, roomRepo repositories.RoomRepository) CommentService {
	return &commentService{commentRepo: commentRepo, roomRepo: roomRepo}
}

func (s *commentService) ListComments(ctx context.Context, ownerID, roomID uuid.UUID) ([]*models.Comment, error) {
	if err := s.ensureRoom(ctx, ownerID, roomID); err != nil {
		return nil, err
	}
	list, err := s.commentRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Comment{}
	}
	return list, nil
}

func (s *commentService) CreateComment(
	ctx context.Context,
	actor *models.User,
	ownerID, roomID uuid.UUID,
	body string,
) (*models.Comment, error) {
	if err := s.ensureRoom(ctx, ownerID, roomID); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationError("Comment body is required")
	}

	c := &models.Comment{
		ID:     uuid.New(),
		UserID: actor.ID,
		RoomID: roomID,
		Body:   body,
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	c.AuthorName = actor.DisplayName()
	return c, nil
}

func (s *commentService) UpdateComment(
	ctx context.Context,
	actor *models.User,
	ownerID, roomID, commentID uuid.UUID,
	body string,
) (*models.Comment, error) {
	c, err := s.load(ctx, ownerID, roomID, commentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.ID {
		return nil, forbidden("Only the author can edit a comment")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationError("Comment body is required")
	}

	if err := s.commentRepo.UpdateBody(ctx, commentID, body); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, notFound("Comment")
		}
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, commentID)
}

func (s *commentService) DeleteComment(
	ctx context.Context,
	actor *models.User,
	ownerID, roomID, commentID uuid.UUID,
) error {
	c, err := s.load(ctx, ownerID, roomID, commentID)
	if err != nil {
		return err
	}
	if c.UserID != actor.ID && actor.ID != ownerID && actor.Role != models.RoleAdmin {
		return forbidden("Only the author or the room owner can delete a comment")
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return notFound("Comment")
		}
		return err
	}
	return nil
}

func (s *commentService) ensureRoom(ctx context.Context, ownerID, roomID uuid.UUID) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil || room.UserID != ownerID {
		return notFound("Room")
	}
	return nil
}

func (s *commentService) load(ctx context.Context, ownerID, roomID, commentID uuid.UUID) (*models.Comment, error) {
	if err := s.ensureRoom(ctx, ownerID, roomID); err != nil {
		return nil, err
	}
	c, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.RoomID != roomID {
		return nil, notFound("Comment")
	}
	return c, nil
}
