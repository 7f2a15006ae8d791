package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Room, error)
	ListLinkedToAvito(ctx context.Context, ownerID uuid.UUID) ([]*models.Room, error)

	UpdateIfVersion(ctx context.Context, room *models.Room, expected int64) (pgconn.CommandTag, error)
	UpdateExpected(ctx context.Context, room *models.Room, expected int64) error
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Room) error) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type roomRepo struct {
	*BaseVersionedRepo[*models.Room]
	db DB
}

func NewRoomRepository(db DB) RoomRepository {
	r := &roomRepo{db: db}
	selectStmt := baseSelectRoom() + " WHERE r.id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanRoom)
	return r
}

func (r *roomRepo) Create(ctx context.Context, room *models.Room) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO rooms (
            id, user_id, name, status, color, avito_link, avito_item_id,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7, NOW(), NOW(), 1)
    `,
		room.ID,
		room.UserID,
		room.Name,
		room.Status,
		room.Color,
		room.AvitoLink,
		room.AvitoItemID,
	)
	if err == nil {
		room.RowVersion = 1
	}
	return err
}

func (r *roomRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *roomRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Room, error) {
	rows, err := r.db.Query(ctx, baseSelectRoom()+" WHERE r.user_id=$1 ORDER BY r.created_at", ownerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRoom)
}

func (r *roomRepo) ListLinkedToAvito(ctx context.Context, ownerID uuid.UUID) ([]*models.Room, error) {
	rows, err := r.db.Query(ctx,
		baseSelectRoom()+" WHERE r.user_id=$1 AND r.avito_item_id IS NOT NULL ORDER BY r.created_at",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRoom)
}

func (r *roomRepo) UpdateIfVersion(ctx context.Context, room *models.Room, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE rooms SET
            name=$1, status=$2, color=$3,
            last_cleaned_at=$4, last_cleaned_by=$5,
            avito_link=$6, avito_item_id=$7,
            updated_at=NOW(), row_version=row_version+1
        WHERE id=$8 AND row_version=$9
    `,
		room.Name, room.Status, room.Color,
		room.LastCleanedAt, room.LastCleanedBy,
		room.AvitoLink, room.AvitoItemID,
		room.ID, expected,
	)
}

func (r *roomRepo) UpdateExpected(ctx context.Context, room *models.Room, expected int64) error {
	return r.BaseVersionedRepo.UpdateExpected(ctx, room, expected, r.UpdateIfVersion)
}

func (r *roomRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Room) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *roomRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// The cleaner's display name is joined in so the room list can show
// "cleaned by" without a second round-trip.
func baseSelectRoom() string {
	return `
        SELECT
            r.id, r.user_id, r.name, r.status, r.color,
            r.last_cleaned_at, r.last_cleaned_by,
            NULLIF(TRIM(CONCAT(c.first_name, ' ', c.last_name)), ''),
            r.avito_link, r.avito_item_id,
            r.created_at, r.updated_at, r.row_version
        FROM rooms r
        LEFT JOIN users c ON c.id = r.last_cleaned_by
    `
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	var room models.Room
	err := row.Scan(
		&room.ID,
		&room.UserID,
		&room.Name,
		&room.Status,
		&room.Color,
		&room.LastCleanedAt,
		&room.LastCleanedBy,
		&room.LastCleanedByName,
		&room.AvitoLink,
		&room.AvitoItemID,
		&room.CreatedAt,
		&room.UpdatedAt,
		&room.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}
