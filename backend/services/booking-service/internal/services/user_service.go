package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	shared_dtos "github.com/rikster-r/booking-calendar/backend/shared/go-dtos"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req dtos.UpdateUserRequest) (*models.User, error)
	ListCleaners(ctx context.Context, ownerID uuid.UUID) ([]*models.User, error)

	ListUsers(ctx context.Context) ([]*models.User, error)
	AdminCreateUser(ctx context.Context, actor *models.User, req dtos.AdminCreateUserRequest) (*models.User, error)
	AdminDeleteUser(ctx context.Context, actor *models.User, id uuid.UUID) error
	AdminUpdateRole(ctx context.Context, actor *models.User, id uuid.UUID, req dtos.UpdateRoleRequest) (*models.User, error)
}

type userService struct {
	userRepo  repositories.UserRepository
	auditRepo repositories.AuditLogRepository
}

func NewUserService(userRepo repositories.UserRepository, auditRepo repositories.AuditLogRepository) UserService {
	return &userService{userRepo: userRepo, auditRepo: auditRepo}
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("User")
	}
	return u, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, req dtos.UpdateUserRequest) (*models.User, error) {
	return s.update(ctx, id, req.RowVersion, func(u *models.User) error {
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.DateFormat != nil {
			u.DateFormat = *req.DateFormat
		}
		if req.TimeFormat != nil {
			u.TimeFormat = *req.TimeFormat
		}
		return nil
	})
}

func (s *userService) ListCleaners(ctx context.Context, ownerID uuid.UUID) ([]*models.User, error) {
	users, err := s.userRepo.ListByRelatedTo(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleCleaner {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) AdminCreateUser(ctx context.Context, actor *models.User, req dtos.AdminCreateUserRequest) (*models.User, error) {
	email := utils.NormalizeEmail(req.Email)
	if !utils.IsValidEmail(email) {
		return nil, validationError("Invalid email address")
	}
	relatedTo, err := s.checkRelatedTo(ctx, req.Role, req.RelatedTo)
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		RelatedTo:    relatedTo,
		DateFormat:   utils.DefaultDateFormat,
		TimeFormat:   utils.DefaultTimeFormat,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, utils.ErrEmailExists) {
			return nil, utils.NewAppError(http.StatusConflict, utils.ErrCodeEmailExists, "Email already registered", err)
		}
		return nil, err
	}

	writeAudit(ctx, s.auditRepo, actor.ID, models.AuditCreate, models.TargetUser, user.ID,
		shared_dtos.NewUserFromModel(*user))
	return user, nil
}

func (s *userService) AdminDeleteUser(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor.ID == id {
		return validationError("Admins cannot delete their own account")
	}
	existing, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return notFound("User")
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return notFound("User")
		}
		return err
	}
	writeAudit(ctx, s.auditRepo, actor.ID, models.AuditDelete, models.TargetUser, id,
		shared_dtos.NewUserFromModel(*existing))
	return nil
}

func (s *userService) AdminUpdateRole(ctx context.Context, actor *models.User, id uuid.UUID, req dtos.UpdateRoleRequest) (*models.User, error) {
	if actor.ID == id && req.Role != models.RoleAdmin {
		return nil, validationError("Admins cannot demote themselves")
	}
	relatedTo, err := s.checkRelatedTo(ctx, req.Role, req.RelatedTo)
	if err != nil {
		return nil, err
	}

	var before models.Role
	updated, err := s.update(ctx, id, req.RowVersion, func(u *models.User) error {
		before = u.Role
		u.Role = req.Role
		u.RelatedTo = relatedTo
		return nil
	})
	if err != nil {
		return nil, err
	}

	writeAudit(ctx, s.auditRepo, actor.ID, models.AuditUpdate, models.TargetUser, id, map[string]any{
		"role_before": before,
		"role_after":  updated.Role,
		"related_to":  updated.RelatedTo,
	})
	return updated, nil
}

// checkRelatedTo only lets cleaners point at an owner, and that owner must
// be a client.
func (s *userService) checkRelatedTo(ctx context.Context, role models.Role, relatedTo *uuid.UUID) (*uuid.UUID, error) {
	if role != models.RoleCleaner {
		return nil, nil
	}
	if relatedTo == nil {
		return nil, validationError("Cleaners must be related to an owner")
	}
	owner, err := s.userRepo.GetByID(ctx, *relatedTo)
	if err != nil {
		return nil, err
	}
	if owner == nil || owner.Role != models.RoleClient {
		return nil, validationError("related_to must reference a client account")
	}
	return relatedTo, nil
}

// update applies mutate to the stored user, writing only if the row is still
// at the version the caller last saw.
func (s *userService) update(
	ctx context.Context,
	id uuid.UUID,
	expected *int64,
	mutate func(*models.User) error,
) (*models.User, error) {
	current, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, notFound("User")
	}
	if !current.MatchesVersion(expected) {
		return nil, versionConflict(shared_dtos.NewUserFromModel(*current))
	}

	version := current.RowVersion
	if err := mutate(current); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateExpected(ctx, current, version); err != nil {
		if errors.Is(err, utils.ErrRowVersionConflict) {
			latest, gErr := s.userRepo.GetByID(ctx, id)
			if gErr == nil && latest != nil {
				return nil, versionConflict(shared_dtos.NewUserFromModel(*latest))
			}
			return nil, versionConflict(nil)
		}
		return nil, err
	}
	return current, nil
}
