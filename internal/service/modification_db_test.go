package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
	"github.com/iliyamo/restaurant-table-orders/internal/repository"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var orderCols = []string{
	"id", "restaurant_id", "table_id", "status", "payment_status",
	"subtotal_cents", "tax_cents", "service_cents", "total_cents",
	"tax_rate_bps", "service_rate_bps", "version", "modification_count",
	"has_modifications", "cancelled_at", "created_at", "updated_at",
}

func orderRow(o *model.Order) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orderCols).AddRow(
		o.ID, o.RestaurantID, o.TableID, string(o.Status), string(o.PaymentStatus),
		o.SubtotalCents, o.TaxCents, o.ServiceCents, o.TotalCents,
		o.TaxRateBps, o.ServiceRateBps, o.Version, o.ModificationCount,
		o.HasModifications, nil, now, now,
	)
}

var itemCols = []string{
	"id", "order_id", "menu_item_id", "name", "quantity",
	"unit_price_cents", "total_cents", "created_at",
}

func newModService(db *sql.DB) *ModificationService {
	orders := repository.NewOrderRepo(db)
	mods := repository.NewModificationRepo(db)
	return NewModificationService(db, orders, mods, nil, time.Second, quietLogger())
}

func TestModifyOrderVersionConflict(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newModService(db)

	stored := &model.Order{
		ID: 10, RestaurantID: 1, TableID: 4,
		Status: model.OrderConfirmed, PaymentStatus: model.PaymentPending,
		TotalCents: 5000, Version: 5,
	}
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(10)).WillReturnRows(orderRow(stored))
	mock.ExpectQuery(`FROM order_modifications WHERE idempotency_key`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	req := validModifyRequest()
	req.OrderID = 10
	req.RequestedVersion = 4 // stored version is 5

	_, err := svc.ModifyOrder(context.Background(), req)
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestModifyOrderIdempotentReplay(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newModService(db)

	stored := &model.Order{
		ID: 10, RestaurantID: 1, TableID: 4,
		Status: model.OrderConfirmed, PaymentStatus: model.PaymentPending,
		TotalCents: 6250, Version: 2, ModificationCount: 1, HasModifications: true,
	}
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(10)).WillReturnRows(orderRow(stored))
	mock.ExpectQuery(`FROM order_modifications WHERE idempotency_key`).
		WithArgs("key-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "idempotency_key", "old_total_cents", "new_total_cents",
			"reason", "actor_id", "created_at",
		}).AddRow(9, 10, "key-1", 5000, 6250, "guest added pizza", 1, time.Now()))
	mock.ExpectQuery(`FROM order_modification_items WHERE modification_id`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "modification_id", "menu_item_id", "change_type",
			"old_quantity", "new_quantity", "unit_price_cents",
		}).AddRow(1, 9, 5, string(model.ChangeAdded), 0, 1, 1250))
	mock.ExpectQuery(`FROM order_items WHERE order_id`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(3, 10, 5, "Margherita", 1, 1250, 1250, time.Now()))
	mock.ExpectCommit()

	req := validModifyRequest()
	req.OrderID = 10
	req.RequestedVersion = 99 // replay wins before the version check

	result, err := svc.ModifyOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("ModifyOrder: %v", err)
	}
	if !result.IsDuplicate {
		t.Fatalf("expected IsDuplicate=true on replay")
	}
	if result.Modification.ID != 9 || len(result.Modification.Items) != 1 {
		t.Fatalf("expected the committed audit row back, got %+v", result.Modification)
	}
	// No INSERT/UPDATE was expected above: a replay must not write.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestModifyOrderRejectsEmptyItemSet(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newModService(db)

	stored := &model.Order{
		ID: 10, RestaurantID: 1, TableID: 4,
		Status: model.OrderPending, PaymentStatus: model.PaymentPending,
		TotalCents: 1250, Version: 3,
	}
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(10)).WillReturnRows(orderRow(stored))
	mock.ExpectQuery(`FROM order_modifications WHERE idempotency_key`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM order_items WHERE order_id`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(3, 10, 5, "Margherita", 1, 1250, 1250, time.Now()))
	mock.ExpectExec(`DELETE FROM order_items WHERE id = \?`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	req := validModifyRequest()
	req.OrderID = 10
	req.RequestedVersion = 3
	req.Changes = []ItemChange{{Action: ActionRemoveItem, OrderItemID: 3}}

	_, err := svc.ModifyOrder(context.Background(), req)
	if !errors.Is(err, repository.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	// The delete rolled back and no audit row was ever inserted.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
