package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

/*
BaseVersionedRepo holds the DB connection, a SELECT-by-ID statement,
and a scanner for a single entity type T. It gives you:

	• GetByID(ctx, id string) (T, error)
	• UpdateWithRetry(ctx, id, mutate, updateIfVersion)
	• UpdateExpected(ctx, entity, expected, updateIfVersion)
*/
type BaseVersionedRepo[T EntityWithVersion] struct {
	db         DB
	selectByID string
	scan       func(row pgx.Row) (T, error)
}

// NewBaseRepo is called by concrete repositories.
func NewBaseRepo[T EntityWithVersion](
	db DB,
	selectByID string,
	scan func(pgx.Row) (T, error),
) *BaseVersionedRepo[T] {
	return &BaseVersionedRepo[T]{db: db, selectByID: selectByID, scan: scan}
}

func (b *BaseVersionedRepo[T]) GetByID(ctx context.Context, id string) (T, error) {
	row := b.db.QueryRow(ctx, b.selectByID, id)
	return b.scan(row)
}

// UpdateWithRetry wires the generic optimistic-locking loop for
// server-side read-modify-write.
func (b *BaseVersionedRepo[T]) UpdateWithRetry(
	ctx context.Context,
	id string,
	mutate func(T) error,
	updateIfVersion UpdateIfVersionFunc[T],
) error {
	return WithRetry(ctx, 3, id, b.GetByID, updateIfVersion, mutate)
}

// UpdateExpected writes entity only if the stored row is still at the
// version the client last saw. On mismatch it returns
// utils.ErrRowVersionConflict and bumps nothing.
func (b *BaseVersionedRepo[T]) UpdateExpected(
	ctx context.Context,
	entity T,
	expected int64,
	updateIfVersion UpdateIfVersionFunc[T],
) error {
	tag, err := updateIfVersion(ctx, entity, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrRowVersionConflict
	}
	entity.SetRowVersion(expected + 1)
	return nil
}
