package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListByRelatedTo(ctx context.Context, ownerID uuid.UUID) ([]*models.User, error)

	UpdateIfVersion(ctx context.Context, u *models.User, expected int64) (pgconn.CommandTag, error)
	UpdateExpected(ctx context.Context, u *models.User, expected int64) error
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	TouchLastSignIn(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type userRepo struct {
	*BaseVersionedRepo[*models.User]
	db DB
}

func NewUserRepository(db DB) UserRepository {
	r := &userRepo{db: db}
	selectStmt := baseSelectUser() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanUser)
	return r
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (
            id, email, password_hash, first_name, last_name, role, related_to,
            date_format, time_format, created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, NOW(), NOW(), 1)
    `,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Role,
		u.RelatedTo,
		u.DateFormat,
		u.TimeFormat,
	)
	if IsUniqueViolation(err) {
		return utils.ErrEmailExists
	}
	if err == nil {
		u.RowVersion = 1
	}
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE email=$1", email)
	return scanUser(row)
}

func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, baseSelectUser()+" ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

func (r *userRepo) ListByRelatedTo(ctx context.Context, ownerID uuid.UUID) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, baseSelectUser()+" WHERE related_to=$1 ORDER BY first_name, last_name", ownerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

func (r *userRepo) UpdateIfVersion(ctx context.Context, u *models.User, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE users SET
            first_name=$1, last_name=$2, role=$3, related_to=$4,
            date_format=$5, time_format=$6,
            updated_at=NOW(), row_version=row_version+1
        WHERE id=$7 AND row_version=$8
    `,
		u.FirstName, u.LastName, u.Role, u.RelatedTo,
		u.DateFormat, u.TimeFormat,
		u.ID, expected,
	)
}

func (r *userRepo) UpdateExpected(ctx context.Context, u *models.User, expected int64) error {
	return r.BaseVersionedRepo.UpdateExpected(ctx, u, expected, r.UpdateIfVersion)
}

func (r *userRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash=$1, updated_at=NOW(), row_version=row_version+1 WHERE id=$2`,
		hash, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *userRepo) TouchLastSignIn(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_sign_in_at=NOW() WHERE id=$1`, id)
	return err
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func baseSelectUser() string {
	return `
        SELECT
            id, email, password_hash, first_name, last_name, role, related_to,
            date_format, time_format, last_sign_in_at,
            created_at, updated_at, row_version
        FROM users
    `
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.RelatedTo,
		&u.DateFormat,
		&u.TimeFormat,
		&u.LastSignInAt,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
