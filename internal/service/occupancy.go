package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
	"github.com/iliyamo/restaurant-table-orders/internal/queue"
	"github.com/iliyamo/restaurant-table-orders/internal/repository"
)

// SweepError records a single table's failure during a sweep run. One
// bad table never aborts the rest of the sweep.
type SweepError struct {
	TableID uint64 `json:"table_id"`
	Err     string `json:"error"`
}

// SweepResult reports one occupancy sweep run.
type SweepResult struct {
	Checked int          `json:"checked"`
	Fixed   int          `json:"fixed"`
	Errors  []SweepError `json:"errors,omitempty"`
}

// OccupancyService derives a table's displayed occupancy from its
// orders. The rule: occupied iff at least one order is active (not
// cancelled) and not fully paid. A SERVED but unpaid order still
// occupies the table. RESERVED is manual and never touched here.
type OccupancyService struct {
	tables    *repository.TableRepo
	orders    *repository.OrderRepo
	publisher *queue.Publisher
	logger    *slog.Logger
}

// NewOccupancyService constructs the reconciler. publisher may be nil;
// status-change events are then skipped.
func NewOccupancyService(tables *repository.TableRepo, orders *repository.OrderRepo, publisher *queue.Publisher, logger *slog.Logger) *OccupancyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OccupancyService{tables: tables, orders: orders, publisher: publisher, logger: logger}
}

// DeriveStatus is the pure derivation rule. It returns the status the
// table should display and whether a change is needed. RESERVED always
// stays as is.
func DeriveStatus(current model.TableStatus, activeOrders int) (model.TableStatus, bool) {
	if current == model.TableReserved {
		return current, false
	}
	want := model.TableAvailable
	if activeOrders > 0 {
		want = model.TableOccupied
	}
	return want, want != current
}

// ReconcileTable recomputes one table's occupancy and corrects the
// stored status if it drifted. Safe to call redundantly. Returns
// whether a change was applied.
func (s *OccupancyService) ReconcileTable(ctx context.Context, tableID uint64) (bool, error) {
	table, err := s.tables.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: table %d", repository.ErrNotFound, tableID)
		}
		return false, fmt.Errorf("load table: %w", err)
	}
	active, err := s.orders.ActiveCountByTable(ctx, tableID)
	if err != nil {
		return false, fmt.Errorf("count active orders: %w", err)
	}
	want, needed := DeriveStatus(table.Status, active)
	if !needed {
		return false, nil
	}
	changed, err := s.tables.SetDerivedStatus(ctx, tableID, want)
	if err != nil {
		return false, fmt.Errorf("update table status: %w", err)
	}
	if changed {
		s.logger.Info("table occupancy corrected",
			"table_id", tableID, "from", table.Status, "to", want, "active_orders", active)
		s.publishStatusChange(table, want)
	}
	return changed, nil
}

func (s *OccupancyService) publishStatusChange(table *model.Table, to model.TableStatus) {
	if s.publisher == nil {
		return
	}
	ev := queue.TableStatusChangedEvent{
		TableID:      table.ID,
		RestaurantID: table.RestaurantID,
		Label:        table.Label,
		OldStatus:    string(table.Status),
		NewStatus:    string(to),
		ChangedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		if err := s.publisher.PublishTableStatusChanged(context.Background(), ev); err != nil {
			s.logger.Error("table status event publish failed", "table_id", ev.TableID, "error", err)
		}
	}()
}

// ReconcileDetached runs the reactive entry point on a detached
// context. Failures are logged and swallowed: occupancy drift degrades
// to "fixed on next sweep", it must never fail the order or payment
// operation that triggered it.
func (s *OccupancyService) ReconcileDetached(tableID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.ReconcileTable(ctx, tableID); err != nil {
			s.logger.Error("occupancy reconcile failed", "table_id", tableID, "error", err)
		}
	}()
}

// RunSweep re-derives occupancy for every table currently marked
// OCCUPIED and corrects the stale ones. The sweep is the safety net
// behind the reactive path and is idempotent: a second run over a
// stable dataset changes nothing.
func (s *OccupancyService) RunSweep(ctx context.Context) (SweepResult, error) {
	ids, err := s.tables.ListOccupied(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list occupied tables: %w", err)
	}
	res := SweepResult{Checked: len(ids)}
	for _, id := range ids {
		changed, err := s.ReconcileTable(ctx, id)
		if err != nil {
			res.Errors = append(res.Errors, SweepError{TableID: id, Err: err.Error()})
			continue
		}
		if changed {
			res.Fixed++
		}
	}
	s.logger.Info("occupancy sweep finished",
		"checked", res.Checked, "fixed", res.Fixed, "errors", len(res.Errors))
	return res, nil
}
