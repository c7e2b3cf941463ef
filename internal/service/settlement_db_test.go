package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
	"github.com/iliyamo/restaurant-table-orders/internal/repository"
)

func newSettleService(db *sql.DB) *SettlementService {
	orders := repository.NewOrderRepo(db)
	payments := repository.NewPaymentRepo(db)
	sequences := repository.NewSequenceRepo(db)
	return NewSettlementService(db, orders, payments, sequences, nil, nil, time.Second, quietLogger())
}

func pendingOrderRows(orders ...*model.Order) *sqlmock.Rows {
	rows := sqlmock.NewRows(orderCols)
	now := time.Now()
	for _, o := range orders {
		rows.AddRow(
			o.ID, o.RestaurantID, o.TableID, string(o.Status), string(o.PaymentStatus),
			o.SubtotalCents, o.TaxCents, o.ServiceCents, o.TotalCents,
			o.TaxRateBps, o.ServiceRateBps, o.Version, o.ModificationCount,
			o.HasModifications, nil, now, now,
		)
	}
	return rows
}

// A settlement that finds no pending orders must reject instead of
// re-charging: this is what the second of two racing settle calls
// observes after the first one commits.
func TestSettleTableNoPendingOrders(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSettleService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`payment_status = 'PENDING' AND status <> 'CANCELLED'`).
		WithArgs(uint64(4)).WillReturnRows(sqlmock.NewRows(orderCols))
	mock.ExpectRollback()

	_, err := svc.SettleTable(context.Background(), SettleTableRequest{
		TableID: 4,
		Method:  model.MethodCard,
		Actor:   Actor{UserID: 1, Role: RoleCashier, RestaurantID: 1},
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// When an order in the locked set still loses the payment-status race,
// the receipt must reflect only what was actually collected: no payment
// row, no combined totals, no change computed from the skipped order.
func TestSettleTableSkipsAlreadyPaidOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSettleService(db)

	first := &model.Order{
		ID: 21, RestaurantID: 1, TableID: 4,
		Status: model.OrderServed, PaymentStatus: model.PaymentPending,
		SubtotalCents: 4000, TaxCents: 600, ServiceCents: 400, TotalCents: 5000,
	}
	second := &model.Order{
		ID: 22, RestaurantID: 1, TableID: 4,
		Status: model.OrderServed, PaymentStatus: model.PaymentPending,
		SubtotalCents: 2400, TaxCents: 360, ServiceCents: 240, TotalCents: 3000,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`payment_status = 'PENDING' AND status <> 'CANCELLED'`).
		WithArgs(uint64(4)).WillReturnRows(pendingOrderRows(first, second))
	mock.ExpectExec(`INSERT INTO receipt_sequences`).
		WillReturnResult(sqlmock.NewResult(7, 2))
	mock.ExpectQuery(`FROM restaurants WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"tax_rate_bps", "service_rate_bps", "receipt_prefix"}).
			AddRow(1500, 1000, "BELLA"))
	// First order flips to PAID, the second was already settled.
	mock.ExpectExec(`SET payment_status = 'PAID'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET payment_status = 'PAID'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM order_items WHERE order_id`).
		WithArgs(uint64(21)).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(1, 21, 5, "Margherita", 4, 1250, 5000, time.Now()))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectQuery(`SELECT created_at FROM payments WHERE id = \?`).
		WithArgs(uint64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := svc.SettleTable(context.Background(), SettleTableRequest{
		TableID:           4,
		Method:            model.MethodCash,
		CashTenderedCents: 10000,
		Actor:             Actor{UserID: 1, Role: RoleCashier, RestaurantID: 1},
	})
	if err != nil {
		t.Fatalf("SettleTable: %v", err)
	}
	if len(result.Payments) != 1 || result.Payments[0].OrderID != 21 {
		t.Fatalf("expected one payment for order 21, got %+v", result.Payments)
	}
	if result.TotalPaidCents != 5000 {
		t.Fatalf("TotalPaidCents = %d, want 5000", result.TotalPaidCents)
	}
	if result.ChangeCents != 5000 {
		t.Fatalf("ChangeCents = %d, want 5000", result.ChangeCents)
	}
	if result.Combined.TotalCents != 5000 || result.Combined.SubtotalCents != 4000 {
		t.Fatalf("combined totals include the skipped order: %+v", result.Combined)
	}
	if result.SequenceNumber != 7 || !strings.HasPrefix(result.ReceiptNumber, "BELLA1-") {
		t.Fatalf("unexpected receipt %q (seq %d)", result.ReceiptNumber, result.SequenceNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A cash settlement short of the amount due is rejected before any
// sequence draw or status change.
func TestSettleTableInsufficientCash(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newSettleService(db)

	only := &model.Order{
		ID: 21, RestaurantID: 1, TableID: 4,
		Status: model.OrderServed, PaymentStatus: model.PaymentPending,
		SubtotalCents: 4000, TaxCents: 600, ServiceCents: 400, TotalCents: 5000,
	}
	mock.ExpectBegin()
	mock.ExpectQuery(`payment_status = 'PENDING' AND status <> 'CANCELLED'`).
		WithArgs(uint64(4)).WillReturnRows(pendingOrderRows(only))
	mock.ExpectRollback()

	_, err := svc.SettleTable(context.Background(), SettleTableRequest{
		TableID:           4,
		Method:            model.MethodCash,
		CashTenderedCents: 4999,
		Actor:             Actor{UserID: 1, Role: RoleCashier, RestaurantID: 1},
	})
	if !errors.Is(err, repository.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
