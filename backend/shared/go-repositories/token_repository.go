package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// TokenRepository is used by the JWT service and the auth service to manage
// refresh tokens and password-reset tokens. Raw tokens are hashed here and
// never stored.
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// GetRefreshToken fetches by raw token. Returns nil if not found.
	GetRefreshToken(ctx context.Context, rawToken string) (*models.RefreshToken, error)
	RemoveRefreshToken(ctx context.Context, id uuid.UUID) error
	RemoveAllRefreshTokensByUserID(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredRefreshTokens(ctx context.Context) (int64, error)

	CreatePasswordReset(ctx context.Context, t *models.PasswordResetToken, rawToken string) error
	GetPasswordReset(ctx context.Context, rawToken string) (*models.PasswordResetToken, error)
	MarkPasswordResetUsed(ctx context.Context, id uuid.UUID) error
}

type tokenRepository struct {
	db DB
}

func NewTokenRepository(db DB) TokenRepository {
	return &tokenRepository{db: db}
}

// ----------------------------
// Refresh tokens
// ----------------------------

func (r *tokenRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO refresh_tokens (id, user_id, refresh_token, expires_at, created_at, revoked, ip_address)
        VALUES ($1, $2, $3, $4, NOW(), $5, $6)
    `,
		token.ID,
		token.UserID,
		utils.HashToken(token.Token),
		token.ExpiresAt,
		token.Revoked,
		token.IPAddress,
	)
	return err
}

func (r *tokenRepository) GetRefreshToken(ctx context.Context, rawToken string) (*models.RefreshToken, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, user_id, refresh_token, expires_at, created_at, revoked, ip_address
        FROM refresh_tokens
        WHERE refresh_token = $1
    `, utils.HashToken(rawToken))

	var rt models.RefreshToken
	err := row.Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
		&rt.Revoked,
		&rt.IPAddress,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

func (r *tokenRepository) RemoveRefreshToken(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	return err
}

func (r *tokenRepository) RemoveAllRefreshTokensByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

func (r *tokenRepository) CleanupExpiredRefreshTokens(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW() OR revoked`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ----------------------------
// Password reset
// ----------------------------

func (r *tokenRepository) CreatePasswordReset(ctx context.Context, t *models.PasswordResetToken, rawToken string) error {
	t.TokenHash = utils.HashToken(rawToken)
	_, err := r.db.Exec(ctx, `
        INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4, NOW())
    `, t.ID, t.UserID, t.TokenHash, t.ExpiresAt)
	return err
}

func (r *tokenRepository) GetPasswordReset(ctx context.Context, rawToken string) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	err := r.db.QueryRow(ctx, `
        SELECT id, user_id, token_hash, expires_at, used_at, created_at
        FROM password_reset_tokens
        WHERE token_hash = $1
    `, utils.HashToken(rawToken)).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepository) MarkPasswordResetUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE password_reset_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`, id)
	return err
}
