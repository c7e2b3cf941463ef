package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
)

// ModificationRepo persists the append-only audit trail of order edits.
// Rows are created once per accepted modification and never updated or
// deleted; the unique idempotency key is what gives a retried request
// exactly-once semantics.
type ModificationRepo struct {
	db *sql.DB
}

// NewModificationRepo returns a new ModificationRepo bound to the given database.
func NewModificationRepo(db *sql.DB) *ModificationRepo { return &ModificationRepo{db: db} }

// GetByIdempotencyKeyTx looks up a previously committed modification by
// its idempotency key inside the transaction. Returns sql.ErrNoRows
// when no modification with this key exists, meaning the request is new.
func (r *ModificationRepo) GetByIdempotencyKeyTx(ctx context.Context, tx *sql.Tx, key string) (*model.OrderModification, error) {
	const q = `SELECT id, order_id, idempotency_key, old_total_cents, new_total_cents, reason, actor_id, created_at
	           FROM order_modifications WHERE idempotency_key = ?`
	var m model.OrderModification
	err := tx.QueryRowContext(ctx, q, key).Scan(
		&m.ID, &m.OrderID, &m.IdempotencyKey, &m.OldTotalCents, &m.NewTotalCents,
		&m.Reason, &m.ActorID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	items, err := r.itemsTx(ctx, tx, m.ID)
	if err != nil {
		return nil, err
	}
	m.Items = items
	return &m, nil
}

func (r *ModificationRepo) itemsTx(ctx context.Context, tx *sql.Tx, modificationID uint64) ([]model.ModificationItem, error) {
	const q = `SELECT id, modification_id, menu_item_id, change_type, old_quantity, new_quantity, unit_price_cents
	           FROM order_modification_items WHERE modification_id = ? ORDER BY id`
	rows, err := tx.QueryContext(ctx, q, modificationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ModificationItem, 0)
	for rows.Next() {
		var it model.ModificationItem
		if err := rows.Scan(&it.ID, &it.ModificationID, &it.MenuItemID, &it.ChangeType,
			&it.OldQuantity, &it.NewQuantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateTx inserts the modification row and populates the generated ID
// and creation timestamp on the provided record. The caller must commit
// or roll back the transaction.
func (r *ModificationRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.OrderModification) error {
	const q = `INSERT INTO order_modifications (order_id, idempotency_key, old_total_cents, new_total_cents, reason, actor_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, m.OrderID, m.IdempotencyKey, m.OldTotalCents, m.NewTotalCents, m.Reason, m.ActorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	// Query back the row to populate the DB-assigned timestamp.
	const sel = `SELECT created_at FROM order_modifications WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, m.ID).Scan(&m.CreatedAt)
}

// CreateItemsBulkTx inserts the item-level sub-records of a
// modification in a single statement. Passing an empty slice has no
// effect and returns nil.
func (r *ModificationRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.ModificationItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_modification_items (modification_id, menu_item_id, change_type, old_quantity, new_quantity, unit_price_cents) VALUES `
	args := make([]interface{}, 0, len(items)*6)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, it.ModificationID, it.MenuItemID, it.ChangeType, it.OldQuantity, it.NewQuantity, it.UnitPriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
