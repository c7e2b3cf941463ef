package repository

import (
	"context"
	"database/sql"
)

// SequenceRepo advances the per-tenant daily receipt counter. The
// counter row is the single serialization point for a tenant's
// settlements: MySQL's LAST_INSERT_ID(expr) trick makes the increment
// atomic under concurrent callers, so two cashiers can never draw the
// same number. Counters are never reset or reused; a failed caller
// leaves at most a gap.
type SequenceRepo struct {
	db *sql.DB
}

// NewSequenceRepo returns a new SequenceRepo bound to the given database.
func NewSequenceRepo(db *sql.DB) *SequenceRepo { return &SequenceRepo{db: db} }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// next performs the atomic upsert-increment against the given executor.
// On a fresh (restaurant, day) pair the INSERT lands with value 1 and
// RowsAffected is 1; on an existing pair the ON DUPLICATE branch runs,
// RowsAffected is 2 and the new value is carried via LAST_INSERT_ID.
func next(ctx context.Context, ex execer, restaurantID uint64, day string) (uint64, error) {
	const q = `INSERT INTO receipt_sequences (restaurant_id, seq_date, next_value)
	           VALUES (?, ?, 1)
	           ON DUPLICATE KEY UPDATE next_value = LAST_INSERT_ID(next_value + 1)`
	res, err := ex.ExecContext(ctx, q, restaurantID, day)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 1 {
		return 1, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Next increments and returns the counter for the tenant and day using
// an implicit single-statement transaction.
func (r *SequenceRepo) Next(ctx context.Context, restaurantID uint64, day string) (uint64, error) {
	return next(ctx, r.db, restaurantID, day)
}

// NextTx increments the counter inside the caller's transaction. The
// row lock taken by the upsert serializes sibling settlements for the
// tenant until the transaction commits, and a rollback releases the
// number without ever having exposed it.
func (r *SequenceRepo) NextTx(ctx context.Context, tx *sql.Tx, restaurantID uint64, day string) (uint64, error) {
	return next(ctx, tx, restaurantID, day)
}
