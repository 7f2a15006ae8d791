package testhelpers

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

// TestPassword is the plaintext password of every user made by CreateTestUser.
const TestPassword = "TestP@ss123"

// UniquePhone generates a unique Russian mobile number for testing.
func UniquePhone() string {
	return fmt.Sprintf("+79%09d", rand.New(rand.NewSource(time.Now().UnixNano())).Int31n(1e9))
}

// UniqueEmail generates a unique email for testing.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@booking-calendar.test", prefix, time.Now().UnixNano())
}

// CreateTestUser persists a user with the given role. Cleaners need an owner
// passed in relatedTo.
func (h *TestHelper) CreateTestUser(ctx context.Context, emailPrefix string, role models.Role, relatedTo *uuid.UUID) *models.User {
	hash, err := utils.HashPassword(TestPassword)
	require.NoError(h.T, err)

	u := &models.User{
		ID:           uuid.New(),
		Email:        UniqueEmail(emailPrefix),
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		RelatedTo:    relatedTo,
		DateFormat:   utils.DefaultDateFormat,
		TimeFormat:   utils.DefaultTimeFormat,
	}
	require.NoError(h.T, h.UserRepo.Create(ctx, u), "Failed to create test user")

	created, err := h.UserRepo.GetByID(ctx, u.ID)
	require.NoError(h.T, err)
	require.NotNil(h.T, created, "Failed to fetch user immediately after creation")
	return created
}

// CreateTestRoom persists a ready room owned by ownerID.
func (h *TestHelper) CreateTestRoom(ctx context.Context, ownerID uuid.UUID, name string) *models.Room {
	room := &models.Room{
		ID:     uuid.New(),
		UserID: ownerID,
		Name:   name,
		Status: models.RoomStatusReady,
		Color:  "#4f46e5",
	}
	require.NoError(h.T, h.RoomRepo.Create(ctx, room), "Failed to create test room")

	created, err := h.RoomRepo.GetByID(ctx, room.ID)
	require.NoError(h.T, err)
	require.NotNil(h.T, created)
	return created
}

// CreateTestBooking persists a booking for room between checkIn and checkOut.
func (h *TestHelper) CreateTestBooking(ctx context.Context, room *models.Room, checkIn, checkOut time.Time) *models.Booking {
	b := &models.Booking{
		ID:          uuid.New(),
		RoomID:      room.ID,
		UserID:      room.UserID,
		ClientName:  "Integration Guest",
		ClientPhone: UniquePhone(),
		Adults:      2,
		DailyPrice:  3500,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
	}
	require.NoError(h.T, h.BookingRepo.CreateIfNoOverlap(ctx, b), "Failed to create test booking")
	return b
}
