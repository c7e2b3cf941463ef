package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
)

// TableRepo provides persistence for restaurant tables. The occupancy
// status column is a derived value maintained by the reconciler;
// RESERVED is the one state only manual staff action may enter or
// leave, so every automatic update guards against it in SQL.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, restaurant_id, label, capacity, status, qr_token, created_at, updated_at`

func scanTable(row interface{ Scan(...interface{}) error }) (*model.Table, error) {
	var t model.Table
	err := row.Scan(&t.ID, &t.RestaurantID, &t.Label, &t.Capacity, &t.Status, &t.QRToken, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns one table. sql.ErrNoRows when it does not exist.
func (r *TableRepo) GetByID(ctx context.Context, tableID uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	return scanTable(r.db.QueryRowContext(ctx, q, tableID))
}

// ListByRestaurant returns all tables of a tenant ordered by label.
func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE restaurant_id = ? ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// ListOccupied returns the IDs of every table currently marked OCCUPIED
// for the periodic sweep to re-derive.
func (r *TableRepo) ListOccupied(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM tables WHERE status = 'OCCUPIED'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetDerivedStatus flips a table between AVAILABLE and OCCUPIED. The
// WHERE clause excludes RESERVED so a concurrent manual reservation is
// never silently overridden. Reports whether a row actually changed.
func (r *TableRepo) SetDerivedStatus(ctx context.Context, tableID uint64, status model.TableStatus) (bool, error) {
	const q = `UPDATE tables SET status = ?, updated_at = ?
	           WHERE id = ? AND status <> 'RESERVED' AND status <> ?`
	res, err := r.db.ExecContext(ctx, q, status, time.Now().UTC(), tableID, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetManualStatus applies an explicit staff status change, the only
// path allowed to enter or leave RESERVED.
func (r *TableRepo) SetManualStatus(ctx context.Context, tableID uint64, status model.TableStatus) error {
	const q = `UPDATE tables SET status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, time.Now().UTC(), tableID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish missing table from an already-matching status.
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tables WHERE id = ?`, tableID).Scan(&exists); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a table with a freshly generated durable QR token.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	if t.QRToken == "" {
		t.QRToken = uuid.NewString()
	}
	const q = `INSERT INTO tables (restaurant_id, label, capacity, status, qr_token)
	           VALUES (?, ?, ?, ?, ?)`
	status := t.Status
	if status == "" {
		status = model.TableAvailable
	}
	res, err := r.db.ExecContext(ctx, q, t.RestaurantID, t.Label, t.Capacity, status, t.QRToken)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = status
	return nil
}
