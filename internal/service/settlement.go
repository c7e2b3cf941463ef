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

// SettleTableRequest is the input of one table settlement attempt.
// CashTenderedCents is only meaningful for cash; ExternalRef carries
// the processor transaction id for card and QR payments.
type SettleTableRequest struct {
	TableID           uint64
	Method            model.PaymentMethod
	CashTenderedCents int64
	ExternalRef       string
	Actor             Actor
}

// CombinedReceipt is the synthesized view for receipt rendering: all
// line items merged across the settled orders with the combined money
// fields.
type CombinedReceipt struct {
	Items         []model.OrderItem `json:"items"`
	SubtotalCents int64             `json:"subtotal_cents"`
	TaxCents      int64             `json:"tax_cents"`
	ServiceCents  int64             `json:"service_cents"`
	TotalCents    int64             `json:"total_cents"`
}

// SettlementResult reports one committed table settlement.
type SettlementResult struct {
	ReceiptNumber  string          `json:"receipt_number"`
	SequenceNumber uint64          `json:"sequence_number"`
	Payments       []model.Payment `json:"payments"`
	TotalPaidCents int64           `json:"total_paid_cents"`
	ChangeCents    int64           `json:"change_cents"`
	Combined       CombinedReceipt `json:"combined"`
}

// SettlementService atomically settles every pending order on a table
// under a single consolidated receipt. There is no idempotency token:
// the pending-set query, re-evaluated under lock inside the
// transaction, is the guard — a retried or racing call finds the set
// empty and receives not-found instead of double charging.
type SettlementService struct {
	db        *sql.DB
	orders    *repository.OrderRepo
	payments  *repository.PaymentRepo
	sequences *repository.SequenceRepo
	occupancy *OccupancyService
	publisher *queue.Publisher
	txTimeout time.Duration
	logger    *slog.Logger
}

// NewSettlementService constructs the service. publisher and occupancy
// may be nil in tests; post-commit side effects are then skipped.
func NewSettlementService(db *sql.DB, orders *repository.OrderRepo, payments *repository.PaymentRepo, sequences *repository.SequenceRepo, occupancy *OccupancyService, publisher *queue.Publisher, txTimeout time.Duration, logger *slog.Logger) *SettlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementService{
		db:        db,
		orders:    orders,
		payments:  payments,
		sequences: sequences,
		occupancy: occupancy,
		publisher: publisher,
		txTimeout: txTimeout,
		logger:    logger,
	}
}

// CashShortfall computes how much more cash is needed to cover the
// amount due; zero when the tendered amount suffices.
func CashShortfall(dueCents, tenderedCents int64) int64 {
	if tenderedCents >= dueCents {
		return 0
	}
	return dueCents - tenderedCents
}

// SettleTable marks every pending, non-cancelled order on the table as
// paid under one consolidated receipt. The first order's payment row
// records the full cash tendered and change; sibling rows carry zero so
// the cash drawer reconciles without double counting.
func (s *SettlementService) SettleTable(ctx context.Context, req SettleTableRequest) (*SettlementResult, error) {
	if req.TableID == 0 {
		return nil, fmt.Errorf("%w: table id is required", repository.ErrValidation)
	}
	if !model.ValidMethod(req.Method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", repository.ErrValidation, req.Method)
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

	set, err := s.orders.PendingByTableTx(ctx, tx, req.TableID)
	if err != nil {
		return nil, mapTxErr(fmt.Errorf("load settlement set: %w", err))
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: no unpaid orders on table %d", repository.ErrNotFound, req.TableID)
	}
	restaurantID := set[0].RestaurantID

	var due int64
	for i := range set {
		due += set[i].TotalCents
	}
	if req.Method == model.MethodCash {
		if short := CashShortfall(due, req.CashTenderedCents); short > 0 {
			return nil, fmt.Errorf("%w: insufficient cash, short by %d cents", repository.ErrValidation, short)
		}
	}

	// No receipt number, no payment: a sequence failure aborts before
	// any Payment row exists. Advancing the counter inside this
	// transaction keeps it gap-free on rollback.
	day := sequenceDay(time.Now())
	seq, err := s.sequences.NextTx(ctx, tx, restaurantID, day)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrSequenceUnavailable, mapTxErr(err))
	}
	_, _, prefix, err := s.orders.RestaurantRates(ctx, tx, restaurantID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, mapTxErr(fmt.Errorf("load tenant config: %w", err))
	}
	receipt := FormatReceiptNumber(prefix, restaurantID, day, seq)

	// Marking paid comes first: combined totals, collected amount and
	// change are then computed from the orders that actually flipped,
	// never from ones that lost the race and were skipped.
	var paidIdx []int
	for i := range set {
		paid, err := s.orders.MarkPaidTx(ctx, tx, set[i].ID)
		if err != nil {
			return nil, mapTxErr(fmt.Errorf("mark order paid: %w", err))
		}
		if !paid {
			continue
		}
		paidIdx = append(paidIdx, i)
	}
	if len(paidIdx) == 0 {
		return nil, fmt.Errorf("%w: all orders on table %d were already settled", repository.ErrNotFound, req.TableID)
	}

	var collected int64
	combined := CombinedReceipt{Items: make([]model.OrderItem, 0)}
	for _, i := range paidIdx {
		items, err := s.orders.ItemsTx(ctx, tx, set[i].ID)
		if err != nil {
			return nil, mapTxErr(fmt.Errorf("load items: %w", err))
		}
		set[i].Items = items
		collected += set[i].TotalCents
		combined.SubtotalCents += set[i].SubtotalCents
		combined.TaxCents += set[i].TaxCents
		combined.ServiceCents += set[i].ServiceCents
		combined.TotalCents += set[i].TotalCents
		combined.Items = append(combined.Items, items...)
	}
	var change int64
	if req.Method == model.MethodCash {
		change = req.CashTenderedCents - collected
	}

	payments := make([]model.Payment, 0, len(paidIdx))
	for n, i := range paidIdx {
		p := model.Payment{
			OrderID:        set[i].ID,
			RestaurantID:   restaurantID,
			AmountCents:    set[i].TotalCents,
			Method:         req.Method,
			ReceiptNumber:  receipt,
			SequenceNumber: seq,
			PrimaryReceipt: n == 0,
			ExternalRef:    req.ExternalRef,
			ProcessedBy:    req.Actor.UserID,
		}
		if p.PrimaryReceipt && req.Method == model.MethodCash {
			p.CashTenderedCents = req.CashTenderedCents
			p.ChangeCents = change
		}
		if err := s.payments.CreateTx(ctx, tx, &p); err != nil {
			return nil, mapTxErr(fmt.Errorf("create payment: %w", err))
		}
		if err := s.payments.AppendAuditTx(ctx, tx, restaurantID, req.Actor.UserID,
			"table.settle", "order", set[i].ID,
			fmt.Sprintf("receipt=%s amount_cents=%d method=%s", receipt, p.AmountCents, req.Method)); err != nil {
			return nil, mapTxErr(fmt.Errorf("append audit log: %w", err))
		}
		payments = append(payments, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapTxErr(fmt.Errorf("commit tx: %w", err))
	}
	committed = true

	// Best-effort side effects: the money is committed, notification and
	// occupancy failures are logged and swallowed, never rolled back.
	if s.publisher != nil {
		for _, p := range payments {
			ev := queue.PaymentCompletedEvent{
				PaymentID:     p.ID,
				OrderID:       p.OrderID,
				RestaurantID:  p.RestaurantID,
				TableID:       req.TableID,
				AmountCents:   p.AmountCents,
				Method:        string(p.Method),
				ReceiptNumber: p.ReceiptNumber,
				ProcessedBy:   p.ProcessedBy,
				CompletedAt:   time.Now().UTC().Format(time.RFC3339),
			}
			go func(ev queue.PaymentCompletedEvent) {
				if err := s.publisher.PublishPaymentCompleted(context.Background(), ev); err != nil {
					s.logger.Error("payment event publish failed", "order_id", ev.OrderID, "error", err)
				}
			}(ev)
		}
	}
	if s.occupancy != nil {
		s.occupancy.ReconcileDetached(req.TableID)
	}

	s.logger.Info("table settled",
		"table_id", req.TableID, "receipt", receipt,
		"orders", len(payments), "total_cents", collected, "change_cents", change)
	return &SettlementResult{
		ReceiptNumber:  receipt,
		SequenceNumber: seq,
		Payments:       payments,
		TotalPaidCents: collected,
		ChangeCents:    change,
		Combined:       combined,
	}, nil
}
