package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils/avito"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) avito.Date {
	return avito.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

type syncFixture struct {
	*avitoFixture
	sync  AvitoSyncService
	roomA *models.Room
	roomB *models.Room
}

func linkRoom(t *testing.T, f *avitoFixture, itemID int64) *models.Room {
	room := seedRoom(t, f.store, f.owner.ID, models.RoomStatusReady)
	room.AvitoItemID = utils.Ptr(itemID)
	require.NoError(t, f.store.Rooms().UpdateExpected(context.Background(), room, room.RowVersion))
	return room
}

func newSyncFixture(t *testing.T) *syncFixture {
	f := newAvitoFixture(t)
	_, err := f.tokens.Connect(context.Background(), f.owner.ID, "auth-code")
	require.NoError(t, err)

	return &syncFixture{
		avitoFixture: f,
		sync: NewAvitoSyncService(testConfig(t), f.api, f.tokens,
			f.store.Rooms(), f.store.Bookings(), f.store.Credentials()),
		roomA: linkRoom(t, f, 111),
		roomB: linkRoom(t, f, 222),
	}
}

func (f *syncFixture) window() (time.Time, time.Time) {
	loc := constants.AvitoLocation()
	return time.Date(2025, 4, 1, 0, 0, 0, 0, loc), time.Date(2025, 7, 1, 0, 0, 0, 0, loc)
}

func TestSyncOwnerInsertsAndSkips(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)
	loc := constants.AvitoLocation()

	// A manual booking already holds roomB on 2025-04-20..22.
	seedBooking(t, f.store, f.roomB,
		time.Date(2025, 4, 20, 14, 0, 0, 0, loc), time.Date(2025, 4, 22, 12, 0, 0, 0, loc))

	f.api.bookings[111] = []avito.Booking{
		{AvitoBookingID: 1, BasePrice: 9000, CheckIn: day(2025, 4, 10), CheckOut: day(2025, 4, 13), Nights: 3,
			GuestCount: 2, Contact: avito.Contact{Name: "Olga", Phone: "89991112233"}},
		{AvitoBookingID: 2, CheckIn: day(2025, 4, 15), CheckOut: day(2025, 4, 16), Status: "canceled"},
		{AvitoBookingID: 4, CheckIn: day(2025, 4, 25), CheckOut: day(2025, 4, 25)},
	}
	f.api.bookings[222] = []avito.Booking{
		{AvitoBookingID: 3, CheckIn: day(2025, 4, 21), CheckOut: day(2025, 4, 23)},
	}

	from, to := f.window()
	report, err := f.sync.SyncOwner(ctx, f.owner.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rooms)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 2, report.Skipped, "zero-length stay and the overlap")
	assert.Equal(t, 2, f.api.listCalls)
	assert.Equal(t, "access-1", f.api.lastAccess)

	list, err := f.store.Bookings().ListByOwner(ctx, f.owner.ID, repositories.BookingFilter{RoomID: &f.roomA.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, "Olga", got.ClientName)
	assert.Equal(t, "+79991112233", got.ClientPhone)
	assert.Equal(t, 3000.0, got.DailyPrice)
	assert.Equal(t, 2, got.Adults)
	assert.True(t, got.CheckIn.Equal(time.Date(2025, 4, 10, 14, 0, 0, 0, loc)))
	assert.True(t, got.CheckOut.Equal(time.Date(2025, 4, 13, 12, 0, 0, 0, loc)))
	require.NotNil(t, got.AvitoBookingID)
	assert.Equal(t, int64(1), *got.AvitoBookingID)

	// Nothing changed upstream: a second run writes nothing.
	report, err = f.sync.SyncOwner(ctx, f.owner.ID, from, to)
	require.NoError(t, err)
	assert.Zero(t, report.Inserted)
	assert.Zero(t, report.Updated)
}

func TestSyncOwnerMergesKeepingLocalFields(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	f.api.bookings[111] = []avito.Booking{
		{AvitoBookingID: 10, BasePrice: 4000, CheckIn: day(2025, 5, 1), CheckOut: day(2025, 5, 3), Nights: 2,
			Contact: avito.Contact{Name: "Pavel", Phone: "+79990000000"}},
	}
	from, to := f.window()
	_, err := f.sync.SyncOwner(ctx, f.owner.ID, from, to)
	require.NoError(t, err)

	list, err := f.store.Bookings().ListByOwner(ctx, f.owner.ID, repositories.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	local := list[0]
	assert.Equal(t, 1, local.Adults, "inserted bookings get at least one adult")

	local.DoorCode = utils.Ptr("4321")
	local.Paid = true
	require.NoError(t, f.store.Bookings().UpdateIfNoOverlap(ctx, local, local.RowVersion))

	// Guest extends the stay; Avito drops the phone.
	f.api.bookings[111] = []avito.Booking{
		{AvitoBookingID: 10, BasePrice: 6000, CheckIn: day(2025, 5, 1), CheckOut: day(2025, 5, 4), Nights: 3,
			Contact: avito.Contact{Name: "Pavel"}},
	}
	report, err := f.sync.SyncOwner(ctx, f.owner.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Zero(t, report.Inserted)

	merged, err := f.store.Bookings().GetByID(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, "4321", utils.Val(merged.DoorCode))
	assert.True(t, merged.Paid)
	assert.Equal(t, "+79990000000", merged.ClientPhone)
	assert.Equal(t, 1, merged.Adults)
	assert.Equal(t, 4, merged.CheckOut.In(constants.AvitoLocation()).Day())
}

func TestSyncOwnerAbortsOnFetchError(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	f.api.bookings[111] = []avito.Booking{
		{AvitoBookingID: 1, CheckIn: day(2025, 4, 10), CheckOut: day(2025, 4, 13)},
	}
	f.api.listErr[222] = &avito.APIError{StatusCode: 500, Message: "boom"}

	from, to := f.window()
	_, err := f.sync.SyncOwner(ctx, f.owner.ID, from, to)
	requireAppError(t, err, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure)

	list, err := f.store.Bookings().ListByOwner(ctx, f.owner.ID, repositories.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "nothing is written when a fetch fails")
}

func TestSyncOwnerNotConnected(t *testing.T) {
	f := newSyncFixture(t)
	stranger := seedUser(t, f.store, models.RoleClient, nil)
	from, to := f.window()

	_, err := f.sync.SyncOwner(context.Background(), stranger.ID, from, to)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeAvitoNotConnected)

	_, err = f.sync.SyncOwner(context.Background(), f.owner.ID, to, from)
	assert.Error(t, err)
}

func TestSyncOwnerSkipsRoomsNotReady(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)

	f.roomA.Status = models.RoomStatusNotReady
	require.NoError(t, f.store.Rooms().UpdateExpected(ctx, f.roomA, f.roomA.RowVersion))

	f.api.bookings[111] = []avito.Booking{
		{AvitoBookingID: 1, CheckIn: day(2025, 4, 10), CheckOut: day(2025, 4, 13)},
	}
	f.api.bookings[222] = []avito.Booking{
		{AvitoBookingID: 2, CheckIn: day(2025, 4, 10), CheckOut: day(2025, 4, 12)},
	}

	from, to := f.window()
	report, err := f.sync.SyncOwner(ctx, f.owner.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Skipped)

	onA, err := f.store.Bookings().ListByOwner(ctx, f.owner.ID, repositories.BookingFilter{RoomID: &f.roomA.ID})
	require.NoError(t, err)
	assert.Empty(t, onA)
	onB, err := f.store.Bookings().ListByOwner(ctx, f.owner.ID, repositories.BookingFilter{RoomID: &f.roomB.ID})
	require.NoError(t, err)
	assert.Len(t, onB, 1)
}

func TestApplySyncRechecksRoomStatus(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t)
	loc := constants.AvitoLocation()

	existing := seedBooking(t, f.store, f.roomA,
		time.Date(2025, 4, 10, 14, 0, 0, 0, loc), time.Date(2025, 4, 12, 12, 0, 0, 0, loc))

	// The room flips to not ready between the diff and the write.
	f.roomA.Status = models.RoomStatusNotReady
	require.NoError(t, f.store.Rooms().UpdateExpected(ctx, f.roomA, f.roomA.RowVersion))

	moved := *existing
	moved.CheckOut = time.Date(2025, 4, 13, 12, 0, 0, 0, loc)
	fresh := &models.Booking{
		ID: uuid.New(), RoomID: f.roomA.ID, UserID: f.owner.ID,
		ClientName: "Guest", ClientPhone: "+79991234567", Adults: 1,
		CheckIn:  time.Date(2025, 4, 20, 14, 0, 0, 0, loc),
		CheckOut: time.Date(2025, 4, 22, 12, 0, 0, 0, loc),
	}

	res, err := f.store.Bookings().ApplySync(ctx, f.owner.ID, []*models.Booking{&moved}, []*models.Booking{fresh})
	require.NoError(t, err)
	assert.Equal(t, repositories.SyncResult{Skipped: 2}, *res)

	got, err := f.store.Bookings().GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, got.CheckOut.Equal(existing.CheckOut))
}

func TestSyncAllVisitsConnectedOwners(t *testing.T) {
	f := newSyncFixture(t)
	require.NoError(t, f.sync.SyncAll(context.Background()))
	assert.Equal(t, 2, f.api.listCalls)
}

func TestDefaultWindow(t *testing.T) {
	f := newSyncFixture(t)
	now := time.Date(2025, 4, 10, 22, 30, 0, 0, time.UTC) // 01:30 next day in Moscow
	from, to := f.sync.DefaultWindow(now)
	assert.Equal(t, 11, from.Day())
	assert.Equal(t, 0, from.Hour())
	assert.Equal(t, testConfig(t).AvitoSyncDays, int(to.Sub(from).Hours()/24))
}

func TestPushBookingBlocksWholeDays(t *testing.T) {
	f := newSyncFixture(t)
	loc := constants.AvitoLocation()
	b := &models.Booking{
		ID:         uuid.New(),
		UserID:     f.owner.ID,
		RoomID:     f.roomA.ID,
		ClientName: "Walk-in",
		CheckIn:    time.Date(2025, 4, 10, 14, 0, 0, 0, loc),
		CheckOut:   time.Date(2025, 4, 12, 12, 0, 0, 0, loc),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // request is already gone; the push still runs
	f.sync.PushBooking(ctx, f.roomA, b)

	pushes := f.api.pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, int64(111), pushes[0].ItemID)
	assert.Equal(t, int64(777), pushes[0].UserID)
	require.Len(t, pushes[0].Req.Bookings, 1)
	iv := pushes[0].Req.Bookings[0]
	assert.Equal(t, "2025-04-10", iv.DateStart.Format(time.DateOnly))
	assert.Equal(t, "2025-04-12", iv.DateEnd.Format(time.DateOnly))
	assert.Equal(t, constants.AvitoSyncSource, pushes[0].Req.Source)

	f.api.pushErr = &avito.ConflictError{Message: "dates taken"}
	f.sync.PushBooking(context.Background(), f.roomA, b) // logged, not returned
	assert.Len(t, f.api.pushes(), 1)
}
