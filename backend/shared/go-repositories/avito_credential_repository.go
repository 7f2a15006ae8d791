package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
)

// AvitoCredentialRepository stores already-encrypted token strings; it
// never sees plaintext.
type AvitoCredentialRepository interface {
	Upsert(ctx context.Context, c *models.AvitoCredential) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AvitoCredential, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	Delete(ctx context.Context, userID uuid.UUID) (bool, error)
}

type avitoCredentialRepo struct {
	db DB
}

func NewAvitoCredentialRepository(db DB) AvitoCredentialRepository {
	return &avitoCredentialRepo{db: db}
}

func (r *avitoCredentialRepo) Upsert(ctx context.Context, c *models.AvitoCredential) error {
	return r.db.QueryRow(ctx, `
        INSERT INTO avito_access_tokens (
            user_id, access_token, refresh_token, expires_at,
            scope, token_type, avito_user_id, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            access_token  = EXCLUDED.access_token,
            refresh_token = EXCLUDED.refresh_token,
            expires_at    = EXCLUDED.expires_at,
            scope         = EXCLUDED.scope,
            token_type    = EXCLUDED.token_type,
            avito_user_id = EXCLUDED.avito_user_id,
            updated_at    = NOW()
        RETURNING created_at, updated_at
    `,
		c.UserID, c.AccessToken, c.RefreshToken, c.ExpiresAt,
		c.Scope, c.TokenType, c.AvitoUserID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *avitoCredentialRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AvitoCredential, error) {
	var c models.AvitoCredential
	err := r.db.QueryRow(ctx, `
        SELECT user_id, access_token, refresh_token, expires_at,
               scope, token_type, avito_user_id, created_at, updated_at
        FROM avito_access_tokens
        WHERE user_id=$1
    `, userID).Scan(
		&c.UserID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt,
		&c.Scope, &c.TokenType, &c.AvitoUserID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *avitoCredentialRepo) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM avito_access_tokens ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (uuid.UUID, error) {
		var id uuid.UUID
		err := row.Scan(&id)
		return id, err
	})
}

func (r *avitoCredentialRepo) Delete(ctx context.Context, userID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM avito_access_tokens WHERE user_id=$1`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
