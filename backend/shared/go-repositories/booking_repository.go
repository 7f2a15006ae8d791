package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

/* ------------------------------------------------------------------
   Query / result types
------------------------------------------------------------------ */

// OverlapQuery describes a candidate [Start, End) stay on one room.
type OverlapQuery struct {
	RoomID    uuid.UUID
	OwnerID   uuid.UUID
	Start     time.Time
	End       time.Time
	ExcludeID *uuid.UUID
}

// BookingFilter narrows ListByOwner. A booking matches From/To when it
// overlaps the window at all.
type BookingFilter struct {
	From   *time.Time
	To     *time.Time
	RoomID *uuid.UUID
}

// BookingConflictError carries the bookings that blocked a write.
// errors.Is(err, utils.ErrBookingConflict) holds for it.
type BookingConflictError struct {
	Conflicts []*models.Booking
}

func (e *BookingConflictError) Error() string {
	return fmt.Sprintf("booking overlaps %d existing booking(s)", len(e.Conflicts))
}

func (e *BookingConflictError) Unwrap() error { return utils.ErrBookingConflict }

// SyncResult counts what ApplySync did.
type SyncResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, f BookingFilter) ([]*models.Booking, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.Booking, error)

	// FindOverlapping is the read-only overlap check.
	FindOverlapping(ctx context.Context, q OverlapQuery) ([]*models.Booking, error)

	// CreateIfNoOverlap and UpdateIfNoOverlap re-run the overlap check under
	// a lock on the room row and write in the same transaction.
	CreateIfNoOverlap(ctx context.Context, b *models.Booking) error
	UpdateIfNoOverlap(ctx context.Context, b *models.Booking, expected int64) error

	Delete(ctx context.Context, id uuid.UUID) error

	// ApplySync writes a batch of synced bookings atomically. Entries that
	// target a not-ready room, would overlap or lost a version race are
	// skipped, not fatal.
	ApplySync(ctx context.Context, ownerID uuid.UUID, updates, inserts []*models.Booking) (*SyncResult, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type bookingRepo struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", id))
}

func (r *bookingRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, f BookingFilter) ([]*models.Booking, error) {
	sql := baseSelectBooking() + " WHERE user_id=$1"
	args := []any{ownerID}

	if f.RoomID != nil {
		args = append(args, *f.RoomID)
		sql += fmt.Sprintf(" AND room_id=$%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		sql += fmt.Sprintf(" AND check_in < $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		sql += fmt.Sprintf(" AND check_out > $%d", len(args))
	}
	sql += " ORDER BY check_in"

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBooking)
}

func (r *bookingRepo) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.Booking, error) {
	rows, err := r.db.Query(ctx, baseSelectBooking()+" WHERE room_id=$1 ORDER BY check_in", roomID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBooking)
}

func (r *bookingRepo) FindOverlapping(ctx context.Context, q OverlapQuery) ([]*models.Booking, error) {
	return findOverlapping(ctx, r.db, q)
}

func (r *bookingRepo) CreateIfNoOverlap(ctx context.Context, b *models.Booking) error {
	err := WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, b.RoomID, b.UserID); err != nil {
			return err
		}
		if err := ensureNoOverlap(ctx, tx, b, nil); err != nil {
			return err
		}
		return insertBooking(ctx, tx, b)
	})
	return translateBookingErr(err)
}

func (r *bookingRepo) UpdateIfNoOverlap(ctx context.Context, b *models.Booking, expected int64) error {
	err := WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, b.RoomID, b.UserID); err != nil {
			return err
		}
		if err := ensureNoOverlap(ctx, tx, b, &b.ID); err != nil {
			return err
		}
		tag, err := updateBooking(ctx, tx, b, expected)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return utils.ErrRowVersionConflict
		}
		return nil
	})
	if err == nil {
		b.RowVersion = expected + 1
	}
	return translateBookingErr(err)
}

func (r *bookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *bookingRepo) ApplySync(
	ctx context.Context,
	ownerID uuid.UUID,
	updates, inserts []*models.Booking,
) (*SyncResult, error) {
	res := &SyncResult{}

	err := WithTx(ctx, r.db, func(tx pgx.Tx) error {
		roomIDs := map[uuid.UUID]struct{}{}
		for _, b := range append(append([]*models.Booking{}, updates...), inserts...) {
			roomIDs[b.RoomID] = struct{}{}
		}
		ids := make([]string, 0, len(roomIDs))
		for id := range roomIDs {
			ids = append(ids, id.String())
		}
		// Lock every touched room up front, in a stable order. Rooms that are
		// not ready take no synced writes.
		rows, err := tx.Query(ctx, `
            SELECT id, status FROM rooms
            WHERE id = ANY($1::uuid[]) AND user_id=$2
            ORDER BY id FOR UPDATE
        `, ids, ownerID)
		if err != nil {
			return err
		}
		bookable := map[uuid.UUID]bool{}
		for rows.Next() {
			var id uuid.UUID
			var status models.RoomStatus
			if err := rows.Scan(&id, &status); err != nil {
				rows.Close()
				return err
			}
			bookable[id] = status.Bookable()
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, b := range updates {
			if !bookable[b.RoomID] {
				res.Skipped++
				continue
			}
			if err := ensureNoOverlap(ctx, tx, b, &b.ID); err != nil {
				if isBookingConflict(err) {
					res.Skipped++
					continue
				}
				return err
			}
			tag, err := updateBooking(ctx, tx, b, b.RowVersion)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				res.Skipped++
				continue
			}
			b.RowVersion++
			res.Updated++
		}

		for _, b := range inserts {
			if !bookable[b.RoomID] {
				res.Skipped++
				continue
			}
			if err := ensureNoOverlap(ctx, tx, b, nil); err != nil {
				if isBookingConflict(err) {
					res.Skipped++
					continue
				}
				return err
			}
			if err := insertBooking(ctx, tx, b); err != nil {
				return err
			}
			res.Inserted++
		}
		return nil
	})
	if err != nil {
		return nil, translateBookingErr(err)
	}
	return res, nil
}

/* ------------------------------------------------------------------
   Helpers (usable with a pool or a tx)
------------------------------------------------------------------ */

func lockRoom(ctx context.Context, db DB, roomID, ownerID uuid.UUID) error {
	var id uuid.UUID
	err := db.QueryRow(ctx,
		`SELECT id FROM rooms WHERE id=$1 AND user_id=$2 FOR UPDATE`,
		roomID, ownerID,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		return utils.ErrNotFound
	}
	return err
}

// findOverlapping uses the strict predicate: existing.check_in < end AND
// existing.check_out > start, so back-to-back stays do not collide.
func findOverlapping(ctx context.Context, db DB, q OverlapQuery) ([]*models.Booking, error) {
	rows, err := db.Query(ctx, baseSelectBooking()+`
        WHERE room_id=$1 AND user_id=$2
          AND check_in < $4 AND check_out > $3
          AND ($5::uuid IS NULL OR id <> $5::uuid)
        ORDER BY check_in
    `, q.RoomID, q.OwnerID, q.Start, q.End, q.ExcludeID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBooking)
}

func ensureNoOverlap(ctx context.Context, db DB, b *models.Booking, exclude *uuid.UUID) error {
	conflicts, err := findOverlapping(ctx, db, OverlapQuery{
		RoomID:    b.RoomID,
		OwnerID:   b.UserID,
		Start:     b.CheckIn,
		End:       b.CheckOut,
		ExcludeID: exclude,
	})
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &BookingConflictError{Conflicts: conflicts}
	}
	return nil
}

func isBookingConflict(err error) bool {
	_, ok := err.(*BookingConflictError)
	return ok
}

// translateBookingErr maps the exclusion-constraint backstop onto the same
// error the application-level check produces.
func translateBookingErr(err error) error {
	if err != nil && IsExclusionViolation(err) {
		return &BookingConflictError{}
	}
	return err
}

func insertBooking(ctx context.Context, db DB, b *models.Booking) error {
	_, err := db.Exec(ctx, `
        INSERT INTO bookings (
            id, room_id, user_id,
            client_name, client_phone, client_email,
            adults, children, door_code, additional_info,
            daily_price, paid, check_in, check_out, avito_booking_id,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, NOW(), NOW(), 1)
    `,
		b.ID, b.RoomID, b.UserID,
		b.ClientName, b.ClientPhone, b.ClientEmail,
		b.Adults, b.Children, b.DoorCode, b.AdditionalInfo,
		b.DailyPrice, b.Paid, b.CheckIn, b.CheckOut, b.AvitoBookingID,
	)
	if err == nil {
		b.RowVersion = 1
	}
	return err
}

func updateBooking(ctx context.Context, db DB, b *models.Booking, expected int64) (pgconn.CommandTag, error) {
	return db.Exec(ctx, `
        UPDATE bookings SET
            room_id=$1, client_name=$2, client_phone=$3, client_email=$4,
            adults=$5, children=$6, door_code=$7, additional_info=$8,
            daily_price=$9, paid=$10, check_in=$11, check_out=$12,
            avito_booking_id=$13,
            updated_at=NOW(), row_version=row_version+1
        WHERE id=$14 AND row_version=$15
    `,
		b.RoomID, b.ClientName, b.ClientPhone, b.ClientEmail,
		b.Adults, b.Children, b.DoorCode, b.AdditionalInfo,
		b.DailyPrice, b.Paid, b.CheckIn, b.CheckOut,
		b.AvitoBookingID,
		b.ID, expected,
	)
}

func baseSelectBooking() string {
	return `
        SELECT
            id, room_id, user_id,
            client_name, client_phone, client_email,
            adults, children, door_code, additional_info,
            daily_price::float8, paid, check_in, check_out, avito_booking_id,
            created_at, updated_at, row_version
        FROM bookings
    `
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.RoomID,
		&b.UserID,
		&b.ClientName,
		&b.ClientPhone,
		&b.ClientEmail,
		&b.Adults,
		&b.Children,
		&b.DoorCode,
		&b.AdditionalInfo,
		&b.DailyPrice,
		&b.Paid,
		&b.CheckIn,
		&b.CheckOut,
		&b.AvitoBookingID,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
