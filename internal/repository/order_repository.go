package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
)

// OrderRepo provides persistence for orders and their line items. All
// mutating methods take an explicit *sql.Tx so that the service layer
// controls transaction boundaries; the caller must commit or roll back.
// Timestamps are stored and compared in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so services can begin transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderColumns = `id, restaurant_id, table_id, status, payment_status,
       subtotal_cents, tax_cents, service_cents, total_cents,
       tax_rate_bps, service_rate_bps, version, modification_count,
       has_modifications, cancelled_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*model.Order, error) {
	var o model.Order
	var cancelledAt sql.NullTime
	err := row.Scan(
		&o.ID, &o.RestaurantID, &o.TableID, &o.Status, &o.PaymentStatus,
		&o.SubtotalCents, &o.TaxCents, &o.ServiceCents, &o.TotalCents,
		&o.TaxRateBps, &o.ServiceRateBps, &o.Version, &o.ModificationCount,
		&o.HasModifications, &cancelledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		o.CancelledAt = &t
	}
	return &o, nil
}

// GetByIDForUpdateTx loads an order inside the transaction with an
// intent-to-write lock, serializing concurrent modification and
// settlement attempts against the same order. Returns sql.ErrNoRows
// when the order does not exist.
func (r *OrderRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, orderID uint64) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ? FOR UPDATE`
	return scanOrder(tx.QueryRowContext(ctx, q, orderID))
}

// GetByID loads an order and its line items without locking.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, orderID))
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, r.db, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *OrderRepo) items(ctx context.Context, q querier, orderID uint64) ([]model.OrderItem, error) {
	const sel = `SELECT id, order_id, menu_item_id, name, quantity, unit_price_cents, total_cents, created_at
	             FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := q.QueryContext(ctx, sel, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.OrderItem, 0)
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name,
			&it.Quantity, &it.UnitPriceCents, &it.TotalCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ItemsTx returns the order's current line items within the transaction.
func (r *OrderRepo) ItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.OrderItem, error) {
	return r.items(ctx, tx, orderID)
}

// PendingByTableTx returns the settlement set for a table: all orders
// with payment status PENDING and lifecycle status not CANCELLED,
// oldest first, each locked FOR UPDATE. The set may legitimately be
// empty or contain several orders (a table that placed multiple rounds).
func (r *OrderRepo) PendingByTableTx(ctx context.Context, tx *sql.Tx, tableID uint64) ([]model.Order, error) {
	const q = `SELECT ` + orderColumns + `
	           FROM orders
	           WHERE table_id = ? AND payment_status = 'PENDING' AND status <> 'CANCELLED'
	           ORDER BY created_at ASC
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateTotalsTx writes the recomputed money fields together with the
// version increment and modification bookkeeping. It must run in the
// same transaction as the audit row and the item mutations.
func (r *OrderRepo) UpdateTotalsTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `UPDATE orders
	           SET subtotal_cents = ?, tax_cents = ?, service_cents = ?, total_cents = ?,
	               tax_rate_bps = ?, service_rate_bps = ?,
	               version = ?, modification_count = ?, has_modifications = ?,
	               updated_at = ?
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		o.SubtotalCents, o.TaxCents, o.ServiceCents, o.TotalCents,
		o.TaxRateBps, o.ServiceRateBps,
		o.Version, o.ModificationCount, o.HasModifications,
		time.Now().UTC(), o.ID,
	)
	return err
}

// MarkPaidTx flips the order's payment status to PAID and bumps the
// version by one. The WHERE clause re-checks the PENDING status so a
// racing settlement that lost the lock turns into a no-op.
func (r *OrderRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, orderID uint64) (bool, error) {
	const q = `UPDATE orders
	           SET payment_status = 'PAID', version = version + 1, updated_at = ?
	           WHERE id = ? AND payment_status = 'PENDING'`
	res, err := tx.ExecContext(ctx, q, time.Now().UTC(), orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateStatusTx persists a lifecycle status change. Transition
// validity is enforced by the caller via model.CanTransition.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, orderID uint64, status model.OrderStatus, cancelledAt *time.Time) error {
	const q = `UPDATE orders SET status = ?, cancelled_at = ?, version = version + 1, updated_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, cancelledAt, time.Now().UTC(), orderID)
	return err
}

// InsertItemTx appends a new line item to the order.
func (r *OrderRepo) InsertItemTx(ctx context.Context, tx *sql.Tx, it *model.OrderItem) error {
	const q = `INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price_cents, total_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, it.OrderID, it.MenuItemID, it.Name, it.Quantity, it.UnitPriceCents, it.TotalCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// UpdateItemQuantityTx sets a line's quantity and extended total
// recomputed from its stored unit price.
func (r *OrderRepo) UpdateItemQuantityTx(ctx context.Context, tx *sql.Tx, itemID uint64, quantity uint32, totalCents int64) error {
	const q = `UPDATE order_items SET quantity = ?, total_cents = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, quantity, totalCents, itemID)
	return err
}

// DeleteItemTx removes one line item.
func (r *OrderRepo) DeleteItemTx(ctx context.Context, tx *sql.Tx, itemID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE id = ?`, itemID)
	return err
}

// ActiveCountByTable is the occupancy derivation query: orders on the
// table that are not cancelled and not yet fully paid.
func (r *OrderRepo) ActiveCountByTable(ctx context.Context, tableID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM orders
	           WHERE table_id = ? AND status <> 'CANCELLED' AND payment_status <> 'PAID'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, tableID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// OpenByTable lists a table's unsettled, non-cancelled orders with
// their items, oldest first, for display.
func (r *OrderRepo) OpenByTable(ctx context.Context, tableID uint64) ([]model.Order, error) {
	const q = `SELECT ` + orderColumns + `
	           FROM orders
	           WHERE table_id = ? AND payment_status = 'PENDING' AND status <> 'CANCELLED'
	           ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := r.items(ctx, r.db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// RestaurantRates reads the tenant's current tax and service-charge
// configuration inside the transaction so that an edit snapshots the
// rates in effect at that moment.
func (r *OrderRepo) RestaurantRates(ctx context.Context, tx *sql.Tx, restaurantID uint64) (taxBps, serviceBps int32, prefix string, err error) {
	const q = `SELECT tax_rate_bps, service_rate_bps, receipt_prefix FROM restaurants WHERE id = ?`
	err = tx.QueryRowContext(ctx, q, restaurantID).Scan(&taxBps, &serviceBps, &prefix)
	return
}
