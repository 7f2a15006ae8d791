package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	internal_utils "github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/utils"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

const transientRetryDelay = 3 * time.Second

func notFound(what string) *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusNotFound,
		Code:       utils.ErrCodeNotFound,
		Message:    what + " not found",
		Err:        utils.ErrNotFound,
	}
}

func forbidden(msg string) *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusForbidden,
		Code:       utils.ErrCodeForbidden,
		Message:    msg,
		Err:        utils.ErrForbidden,
	}
}

func validationError(msg string) *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusBadRequest,
		Code:       utils.ErrCodeValidation,
		Message:    msg,
	}
}

// versionConflict carries the stored record so the client can replace its
// optimistic copy.
func versionConflict(current any) *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusConflict,
		Code:       utils.ErrCodeRowVersionConflict,
		Message:    "Record was modified by someone else",
		Details:    current,
		Err:        utils.ErrRowVersionConflict,
	}
}

func invalidDateRange() *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusBadRequest,
		Code:       internal_utils.ErrCodeInvalidDateRange,
		Message:    "check_in must be before check_out",
		Err:        utils.ErrInvalidDateRange,
	}
}

// writeAudit never fails the caller; a lost audit row is only logged.
func writeAudit(
	ctx context.Context,
	repo repositories.AuditLogRepository,
	actorID uuid.UUID,
	action models.AuditAction,
	targetType models.AuditTargetType,
	targetID uuid.UUID,
	details any,
) {
	if repo == nil {
		return
	}
	entry := &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			msg := json.RawMessage(raw)
			entry.Details = &msg
		}
	}
	if err := repo.Create(ctx, entry); err != nil {
		utils.Logger.WithError(err).
			WithField("target_id", targetID).
			Warn("failed to write audit log entry")
	}
}

// runWithRetry retries op once on transient connection errors.
func runWithRetry(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || pgconn.SafeToRetry(err) ||
		strings.Contains(err.Error(), "connection was closed") {
		utils.Logger.WithError(err).Warn("transient DB error; retrying once")
		select {
		case <-time.After(transientRetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
		return op(ctx)
	}
	return err
}
