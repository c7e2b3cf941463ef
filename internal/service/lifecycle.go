package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
	"github.com/iliyamo/restaurant-table-orders/internal/repository"
)

// LifecycleService moves orders through their lifecycle states. Every
// committed change triggers the occupancy reconciler, since a
// cancellation can free the table.
type LifecycleService struct {
	db        *sql.DB
	orders    *repository.OrderRepo
	occupancy *OccupancyService
	txTimeout time.Duration
	logger    *slog.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(db *sql.DB, orders *repository.OrderRepo, occupancy *OccupancyService, txTimeout time.Duration, logger *slog.Logger) *LifecycleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LifecycleService{db: db, orders: orders, occupancy: occupancy, txTimeout: txTimeout, logger: logger}
}

// UpdateStatus moves the order to the target lifecycle status after
// policy and transition checks, under the same row lock the
// modification engine uses. Paid orders can no longer be cancelled.
func (s *LifecycleService) UpdateStatus(ctx context.Context, orderID uint64, to model.OrderStatus, actor Actor) (*model.Order, error) {
	if !AllowStatusChange(actor.Role, to) {
		return nil, fmt.Errorf("%w: role %s may not set status %s", repository.ErrPolicyViolation, actor.Role, to)
	}

	ctx, cancel := txContext(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapTxErr(fmt.Errorf("begin tx: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order, err := s.orders.GetByIDForUpdateTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", repository.ErrNotFound, orderID)
		}
		return nil, mapTxErr(fmt.Errorf("lock order: %w", err))
	}
	if to == model.OrderCancelled && order.PaymentStatus == model.PaymentPaid {
		return nil, fmt.Errorf("%w: use the refund flow to reverse a paid order", repository.ErrAlreadySettled)
	}
	if err := model.ApplyTransition(order, to, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrValidation, err)
	}
	if err := s.orders.UpdateStatusTx(ctx, tx, order.ID, order.Status, order.CancelledAt); err != nil {
		return nil, mapTxErr(fmt.Errorf("update status: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, mapTxErr(fmt.Errorf("commit tx: %w", err))
	}
	committed = true

	if s.occupancy != nil {
		s.occupancy.ReconcileDetached(order.TableID)
	}
	s.logger.Info("order status changed", "order_id", order.ID, "status", order.Status, "actor_id", actor.UserID)
	return order, nil
}
