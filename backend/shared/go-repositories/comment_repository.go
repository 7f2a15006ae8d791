package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.Comment, error)
	UpdateBody(ctx context.Context, id uuid.UUID, body string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type commentRepo struct {
	db DB
}

func NewCommentRepository(db DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, c *models.Comment) error {
	return r.db.QueryRow(ctx, `
        INSERT INTO comments (id, user_id, room_id, body, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING created_at, updated_at
    `, c.ID, c.UserID, c.RoomID, c.Body).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *commentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, baseSelectComment()+" WHERE cm.id=$1", id))
}

func (r *commentRepo) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.Comment, error) {
	rows, err := r.db.Query(ctx, baseSelectComment()+" WHERE cm.room_id=$1 ORDER BY cm.created_at", roomID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanComment)
}

func (r *commentRepo) UpdateBody(ctx context.Context, id uuid.UUID, body string) error {
	tag, err := r.db.Exec(ctx, `UPDATE comments SET body=$1, updated_at=NOW() WHERE id=$2`, body, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *commentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func baseSelectComment() string {
	return `
        SELECT
            cm.id, cm.user_id, cm.room_id, cm.body,
            COALESCE(NULLIF(TRIM(CONCAT(u.first_name, ' ', u.last_name)), ''), u.email, ''),
            cm.created_at, cm.updated_at
        FROM comments cm
        LEFT JOIN users u ON u.id = cm.user_id
    `
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.UserID, &c.RoomID, &c.Body, &c.AuthorName, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
