package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
)

// PaymentRepo persists payment rows and the settlement audit trail.
// Payments are append-only; reversal is a separate refund flow outside
// this core.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts one payment row within the settlement transaction and
// populates its generated ID and creation timestamp.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments
	           (order_id, restaurant_id, amount_cents, method, cash_tendered_cents, change_cents,
	            receipt_number, sequence_number, primary_receipt, external_ref, processed_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		p.OrderID, p.RestaurantID, p.AmountCents, p.Method, p.CashTenderedCents, p.ChangeCents,
		p.ReceiptNumber, p.SequenceNumber, p.PrimaryReceipt, p.ExternalRef, p.ProcessedBy,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT created_at FROM payments WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt)
}

// ListByReceipt returns all sibling payments under one consolidated
// receipt number, primary row first.
func (r *PaymentRepo) ListByReceipt(ctx context.Context, receiptNumber string) ([]model.Payment, error) {
	const q = `SELECT id, order_id, restaurant_id, amount_cents, method, cash_tendered_cents, change_cents,
	                  receipt_number, sequence_number, primary_receipt, external_ref, processed_by, created_at
	           FROM payments WHERE receipt_number = ?
	           ORDER BY primary_receipt DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, receiptNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payments := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.RestaurantID, &p.AmountCents, &p.Method,
			&p.CashTenderedCents, &p.ChangeCents, &p.ReceiptNumber, &p.SequenceNumber,
			&p.PrimaryReceipt, &p.ExternalRef, &p.ProcessedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// AppendAuditTx writes one audit-log row inside the transaction. The
// details string is free-form and capped by the column width.
func (r *PaymentRepo) AppendAuditTx(ctx context.Context, tx *sql.Tx, restaurantID, actorID uint64, action, entity string, entityID uint64, details string) error {
	if len(details) > 512 {
		details = details[:512]
	}
	const q = `INSERT INTO audit_logs (restaurant_id, actor_id, action, entity, entity_id, details)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, restaurantID, actorID, action, entity, entityID, details)
	return err
}
