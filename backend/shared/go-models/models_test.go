package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRoomStatusBookable(t *testing.T) {
	assert.False(t, RoomStatusNotReady.Bookable())
	assert.True(t, RoomStatusReady.Bookable())
	assert.True(t, RoomStatusCleaning.Bookable())
	assert.False(t, RoomStatus("dirty").Valid())
}

func TestUserOwnerID(t *testing.T) {
	owner := uuid.New()
	cleaner := User{ID: uuid.New(), Role: RoleCleaner, RelatedTo: &owner}
	assert.Equal(t, owner, cleaner.OwnerID())

	orphan := User{ID: uuid.New(), Role: RoleCleaner}
	assert.Equal(t, orphan.ID, orphan.OwnerID())

	client := User{ID: uuid.New(), Role: RoleClient, RelatedTo: &owner}
	assert.Equal(t, client.ID, client.OwnerID())
}

func TestBookingNights(t *testing.T) {
	in := time.Date(2025, 4, 10, 14, 0, 0, 0, time.UTC)
	b := Booking{CheckIn: in, CheckOut: in.Add(45 * time.Hour), DailyPrice: 3000}
	assert.Equal(t, 2, b.Nights())
	assert.Equal(t, 6000.0, b.TotalPrice())

	b.CheckOut = in.Add(48 * time.Hour)
	assert.Equal(t, 2, b.Nights())
}

func TestVersionedMatches(t *testing.T) {
	v := Versioned{RowVersion: 3}
	assert.True(t, v.MatchesVersion(nil))
	three, two := int64(3), int64(2)
	assert.True(t, v.MatchesVersion(&three))
	assert.False(t, v.MatchesVersion(&two))
}

func TestAvitoCredentialExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, (&AvitoCredential{ExpiresAt: now.Add(30 * time.Second)}).Expired(now))
	assert.False(t, (&AvitoCredential{ExpiresAt: now.Add(time.Hour)}).Expired(now))
}
