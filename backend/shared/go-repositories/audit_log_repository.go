// backend/shared/go-repositories/audit_log_repository.go
package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
)

type AuditLogRepository interface {
	Create(ctx context.Context, logEntry *models.AuditLog) error
	ListByTarget(ctx context.Context, targetType models.AuditTargetType, targetID uuid.UUID) ([]*models.AuditLog, error)
}

type auditLogRepo struct {
	db DB
}

func NewAuditLogRepository(db DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, logEntry *models.AuditLog) error {
	q := `
        INSERT INTO audit_logs (
            id, actor_id, action, target_id, target_type, details, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, NOW())
    `
	_, err := r.db.Exec(ctx, q,
		logEntry.ID,
		logEntry.ActorID,
		logEntry.Action,
		logEntry.TargetID,
		logEntry.TargetType,
		logEntry.Details,
	)
	return err
}

func (r *auditLogRepo) ListByTarget(
	ctx context.Context,
	targetType models.AuditTargetType,
	targetID uuid.UUID,
) ([]*models.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, actor_id, action, target_id, target_type, details, created_at
        FROM audit_logs
        WHERE target_type=$1 AND target_id=$2
        ORDER BY created_at DESC
    `, targetType, targetID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (*models.AuditLog, error) {
		var l models.AuditLog
		err := row.Scan(&l.ID, &l.ActorID, &l.Action, &l.TargetID, &l.TargetType, &l.Details, &l.CreatedAt)
		return &l, err
	})
}
