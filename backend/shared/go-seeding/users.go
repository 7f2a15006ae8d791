package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

const (
	DefaultAdminID   = "11111111-2222-3333-4444-555555555555"
	DefaultOwnerID   = "22222222-2222-2222-2222-222222222222"
	DefaultCleanerID = "33333333-3333-3333-3333-333333333333"

	// DefaultPassword is shared by every seeded account.
	DefaultPassword = "P@ssword123"
)

// seedUser creates u unless an account with the same id or email exists.
func seedUser(ctx context.Context, userRepo repositories.UserRepository, u *models.User) error {
	existing, err := userRepo.GetByID(ctx, u.ID)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return fmt.Errorf("check existing user %s: %w", u.ID, err)
	}
	if existing != nil {
		utils.Logger.Infof("seeding: user %s already present; skipping", u.Email)
		return nil
	}

	hash, err := utils.HashPassword(DefaultPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	u.PasswordHash = hash

	if err := userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, utils.ErrEmailExists) || repositories.IsUniqueViolation(err) {
			utils.Logger.Infof("seeding: email %s already taken; skipping", u.Email)
			return nil
		}
		return fmt.Errorf("create user %s: %w", u.Email, err)
	}
	utils.Logger.Infof("seeding: created %s %s (id=%s)", u.Role, u.Email, u.ID)
	return nil
}

// SeedDefaultAdmin creates the bootstrap admin account.
func SeedDefaultAdmin(ctx context.Context, userRepo repositories.UserRepository) error {
	return seedUser(ctx, userRepo, &models.User{
		ID:         uuid.MustParse(DefaultAdminID),
		Email:      "admin@booking-calendar.local",
		FirstName:  "Admin",
		Role:       models.RoleAdmin,
		DateFormat: utils.DefaultDateFormat,
		TimeFormat: utils.DefaultTimeFormat,
	})
}

// SeedDemoOwner creates a property owner and one cleaner working for them.
func SeedDemoOwner(ctx context.Context, userRepo repositories.UserRepository) error {
	ownerID := uuid.MustParse(DefaultOwnerID)
	if err := seedUser(ctx, userRepo, &models.User{
		ID:         ownerID,
		Email:      "owner@booking-calendar.local",
		FirstName:  "Anna",
		LastName:   "Owner",
		Role:       models.RoleClient,
		DateFormat: utils.DefaultDateFormat,
		TimeFormat: utils.DefaultTimeFormat,
	}); err != nil {
		return err
	}

	return seedUser(ctx, userRepo, &models.User{
		ID:         uuid.MustParse(DefaultCleanerID),
		Email:      "cleaner@booking-calendar.local",
		FirstName:  "Pavel",
		LastName:   "Cleaner",
		Role:       models.RoleCleaner,
		RelatedTo:  &ownerID,
		DateFormat: utils.DefaultDateFormat,
		TimeFormat: utils.DefaultTimeFormat,
	})
}
