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

// ItemChange is one requested item-level edit inside a modification.
// REMOVE_ITEM and CHANGE_QUANTITY address an existing line by
// OrderItemID; ADD_ITEM carries the catalog reference, name and unit
// price snapshot for the new line.
type ItemChange struct {
	Action         ItemAction `json:"action"`
	OrderItemID    uint64     `json:"order_item_id,omitempty"`
	MenuItemID     uint64     `json:"menu_item_id,omitempty"`
	Name           string     `json:"name,omitempty"`
	Quantity       uint32     `json:"quantity,omitempty"`
	UnitPriceCents int64      `json:"unit_price_cents,omitempty"`
}

// ModifyOrderRequest is the full input of one modification attempt.
type ModifyOrderRequest struct {
	OrderID          uint64
	RequestedVersion uint32
	Changes          []ItemChange
	IdempotencyKey   string
	Reason           string
	Actor            Actor
}

// ModificationResult is returned from ModifyOrder. RefundNeededCents is
// non-zero only when a lower total was committed against an order that
// had already been paid; the refund itself is a manual flow.
type ModificationResult struct {
	Order             *model.Order
	Modification      *model.OrderModification
	RefundNeededCents int64
	IsDuplicate       bool
}

// ModificationService applies item-level edits to open orders with
// optimistic concurrency control and exactly-once semantics.
type ModificationService struct {
	db            *sql.DB
	orders        *repository.OrderRepo
	modifications *repository.ModificationRepo
	occupancy     *OccupancyService
	txTimeout     time.Duration
	logger        *slog.Logger
}

// NewModificationService constructs the service. occupancy may be nil
// in tests; post-commit reconciliation is then skipped.
func NewModificationService(db *sql.DB, orders *repository.OrderRepo, modifications *repository.ModificationRepo, occupancy *OccupancyService, txTimeout time.Duration, logger *slog.Logger) *ModificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModificationService{
		db:            db,
		orders:        orders,
		modifications: modifications,
		occupancy:     occupancy,
		txTimeout:     txTimeout,
		logger:        logger,
	}
}

// validate rejects malformed requests before any transaction is opened.
func (req *ModifyOrderRequest) validate() error {
	if req.OrderID == 0 {
		return fmt.Errorf("%w: order id is required", repository.ErrValidation)
	}
	if req.IdempotencyKey == "" {
		return fmt.Errorf("%w: idempotency key is required", repository.ErrValidation)
	}
	if len(req.Changes) == 0 {
		return fmt.Errorf("%w: at least one item change is required", repository.ErrValidation)
	}
	for i, ch := range req.Changes {
		switch ch.Action {
		case ActionAddItem:
			if ch.MenuItemID == 0 || ch.Name == "" {
				return fmt.Errorf("%w: change %d: menu item reference and name are required", repository.ErrValidation, i)
			}
			if ch.Quantity == 0 {
				return fmt.Errorf("%w: change %d: quantity must be positive", repository.ErrValidation, i)
			}
			if ch.UnitPriceCents <= 0 {
				return fmt.Errorf("%w: change %d: unit price must be positive", repository.ErrValidation, i)
			}
		case ActionRemoveItem:
			if ch.OrderItemID == 0 {
				return fmt.Errorf("%w: change %d: order item id is required", repository.ErrValidation, i)
			}
		case ActionChangeQuantity:
			if ch.OrderItemID == 0 {
				return fmt.Errorf("%w: change %d: order item id is required", repository.ErrValidation, i)
			}
			if ch.Quantity == 0 {
				return fmt.Errorf("%w: change %d: quantity must be positive, remove the line instead", repository.ErrValidation, i)
			}
		default:
			return fmt.Errorf("%w: change %d: unknown action %q", repository.ErrValidation, i, ch.Action)
		}
	}
	return nil
}

// ModifyOrder applies the requested item changes inside one transaction.
// Precondition order: row lock, idempotency replay, paid-order check,
// policy check, optimistic version check. All-or-nothing: any rejected
// change aborts the whole request.
func (s *ModificationService) ModifyOrder(ctx context.Context, req ModifyOrderRequest) (*ModificationResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
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

	order, err := s.orders.GetByIDForUpdateTx(ctx, tx, req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", repository.ErrNotFound, req.OrderID)
		}
		return nil, mapTxErr(fmt.Errorf("lock order: %w", err))
	}

	// Exactly-once: a retried request replays the committed result
	// without touching the order again.
	prior, err := s.modifications.GetByIdempotencyKeyTx(ctx, tx, req.IdempotencyKey)
	if err == nil {
		if prior.OrderID != req.OrderID {
			return nil, fmt.Errorf("%w: idempotency key already used for another order", repository.ErrValidation)
		}
		order.Items, err = s.orders.ItemsTx(ctx, tx, order.ID)
		if err != nil {
			return nil, mapTxErr(fmt.Errorf("load items: %w", err))
		}
		if err := tx.Commit(); err != nil {
			return nil, mapTxErr(fmt.Errorf("commit tx: %w", err))
		}
		committed = true
		return &ModificationResult{Order: order, Modification: prior, IsDuplicate: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapTxErr(fmt.Errorf("idempotency lookup: %w", err))
	}

	if order.PaymentStatus == model.PaymentPaid {
		return nil, fmt.Errorf("%w: use the refund flow to adjust a paid order", repository.ErrAlreadySettled)
	}

	for _, ch := range req.Changes {
		if !AllowChange(order.Status, req.Actor.Role, ch.Action) {
			return nil, fmt.Errorf("%w: role %s may not %s while order is %s",
				repository.ErrPolicyViolation, req.Actor.Role, ch.Action, order.Status)
		}
	}

	if req.RequestedVersion != order.Version {
		return nil, fmt.Errorf("%w: order changed by someone else, refresh and retry (have %d, want %d)",
			repository.ErrVersionConflict, req.RequestedVersion, order.Version)
	}

	items, err := s.orders.ItemsTx(ctx, tx, order.ID)
	if err != nil {
		return nil, mapTxErr(fmt.Errorf("load items: %w", err))
	}

	auditItems, newItems, err := s.applyChanges(ctx, tx, order, items, req.Changes)
	if err != nil {
		return nil, err
	}
	if len(newItems) == 0 {
		return nil, fmt.Errorf("%w: cannot remove all items, cancel the order instead", repository.ErrValidation)
	}

	// Refresh the rate snapshot from tenant config at edit time, then
	// recompute every money field from the resulting item set.
	taxBps, serviceBps, _, err := s.orders.RestaurantRates(ctx, tx, order.RestaurantID)
	if err != nil {
		return nil, mapTxErr(fmt.Errorf("load tenant rates: %w", err))
	}
	oldTotal := order.TotalCents
	totals := ComputeTotals(newItems, taxBps, serviceBps)

	mod := &model.OrderModification{
		OrderID:        order.ID,
		IdempotencyKey: req.IdempotencyKey,
		OldTotalCents:  oldTotal,
		NewTotalCents:  totals.TotalCents,
		Reason:         req.Reason,
		ActorID:        req.Actor.UserID,
	}
	if err := s.modifications.CreateTx(ctx, tx, mod); err != nil {
		return nil, mapTxErr(fmt.Errorf("create modification: %w", err))
	}
	for i := range auditItems {
		auditItems[i].ModificationID = mod.ID
	}
	if err := s.modifications.CreateItemsBulkTx(ctx, tx, auditItems); err != nil {
		return nil, mapTxErr(fmt.Errorf("create modification items: %w", err))
	}
	mod.Items = auditItems

	order.SubtotalCents = totals.SubtotalCents
	order.TaxCents = totals.TaxCents
	order.ServiceCents = totals.ServiceCents
	order.TotalCents = totals.TotalCents
	order.TaxRateBps = taxBps
	order.ServiceRateBps = serviceBps
	order.Version++
	order.ModificationCount++
	order.HasModifications = true
	if err := s.orders.UpdateTotalsTx(ctx, tx, order); err != nil {
		return nil, mapTxErr(fmt.Errorf("update order: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, mapTxErr(fmt.Errorf("commit tx: %w", err))
	}
	committed = true
	order.Items = newItems

	result := &ModificationResult{Order: order, Modification: mod}
	// A lower total against an already-paid order is flagged for a
	// manual refund, never settled automatically.
	if order.PaymentStatus == model.PaymentPaid && totals.TotalCents < oldTotal {
		result.RefundNeededCents = oldTotal - totals.TotalCents
	}

	if s.occupancy != nil {
		s.occupancy.ReconcileDetached(order.TableID)
	}
	s.logger.Info("order modified",
		"order_id", order.ID, "version", order.Version,
		"old_total_cents", oldTotal, "new_total_cents", totals.TotalCents,
		"actor_id", req.Actor.UserID)
	return result, nil
}

// applyChanges mutates the line items per the request and returns the
// audit sub-records plus the resulting item set.
func (s *ModificationService) applyChanges(ctx context.Context, tx *sql.Tx, order *model.Order, items []model.OrderItem, changes []ItemChange) ([]model.ModificationItem, []model.OrderItem, error) {
	byID := make(map[uint64]*model.OrderItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	var audit []model.ModificationItem

	for _, ch := range changes {
		switch ch.Action {
		case ActionRemoveItem:
			it, ok := byID[ch.OrderItemID]
			if !ok {
				return nil, nil, fmt.Errorf("%w: item %d not on order %d", repository.ErrValidation, ch.OrderItemID, order.ID)
			}
			if err := s.orders.DeleteItemTx(ctx, tx, it.ID); err != nil {
				return nil, nil, mapTxErr(fmt.Errorf("delete item: %w", err))
			}
			audit = append(audit, model.ModificationItem{
				MenuItemID:     it.MenuItemID,
				ChangeType:     model.ChangeRemoved,
				OldQuantity:    it.Quantity,
				NewQuantity:    0,
				UnitPriceCents: it.UnitPriceCents,
			})
			delete(byID, it.ID)

		case ActionChangeQuantity:
			it, ok := byID[ch.OrderItemID]
			if !ok {
				return nil, nil, fmt.Errorf("%w: item %d not on order %d", repository.ErrValidation, ch.OrderItemID, order.ID)
			}
			oldQty := it.Quantity
			newTotal := extendedPrice(ch.Quantity, it.UnitPriceCents)
			if err := s.orders.UpdateItemQuantityTx(ctx, tx, it.ID, ch.Quantity, newTotal); err != nil {
				return nil, nil, mapTxErr(fmt.Errorf("update item quantity: %w", err))
			}
			it.Quantity = ch.Quantity
			it.TotalCents = newTotal
			audit = append(audit, model.ModificationItem{
				MenuItemID:     it.MenuItemID,
				ChangeType:     model.ChangeQuantityChanged,
				OldQuantity:    oldQty,
				NewQuantity:    ch.Quantity,
				UnitPriceCents: it.UnitPriceCents,
			})

		case ActionAddItem:
			newItem := model.OrderItem{
				OrderID:        order.ID,
				MenuItemID:     ch.MenuItemID,
				Name:           ch.Name,
				Quantity:       ch.Quantity,
				UnitPriceCents: ch.UnitPriceCents,
				TotalCents:     extendedPrice(ch.Quantity, ch.UnitPriceCents),
			}
			if err := s.orders.InsertItemTx(ctx, tx, &newItem); err != nil {
				return nil, nil, mapTxErr(fmt.Errorf("insert item: %w", err))
			}
			byID[newItem.ID] = &newItem
			items = append(items, newItem)
			audit = append(audit, model.ModificationItem{
				MenuItemID:     ch.MenuItemID,
				ChangeType:     model.ChangeAdded,
				OldQuantity:    0,
				NewQuantity:    ch.Quantity,
				UnitPriceCents: ch.UnitPriceCents,
			})
		}
	}

	remaining := make([]model.OrderItem, 0, len(byID))
	for i := range items {
		if it, ok := byID[items[i].ID]; ok {
			remaining = append(remaining, *it)
			delete(byID, items[i].ID)
		}
	}
	return audit, remaining, nil
}
