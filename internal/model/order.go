package model

import (
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of an order, persisted as a string.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"   // placed, awaiting staff confirmation
	OrderConfirmed OrderStatus = "CONFIRMED" // accepted by staff
	OrderPreparing OrderStatus = "PREPARING" // kitchen started
	OrderReady     OrderStatus = "READY"     // ready to serve
	OrderServed    OrderStatus = "SERVED"    // delivered to the table
	OrderCancelled OrderStatus = "CANCELLED" // terminal
)

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// allowedTransitions configures the order lifecycle as a directed graph.
// CANCELLED and SERVED are terminal for automatic flows; cancellation is
// reachable from every non-terminal state.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderServed, OrderCancelled},
	OrderServed:    {},
	OrderCancelled: {},
}

// CanTransition reports whether from -> to is an allowed lifecycle move.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition moves the order to the given status and maintains the
// cancellation timestamp. It fails when the move is not permitted.
func ApplyTransition(o *Order, to OrderStatus, now time.Time) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("invalid order status transition: %s -> %s", o.Status, to)
	}
	o.Status = to
	if to == OrderCancelled && o.CancelledAt == nil {
		t := now
		o.CancelledAt = &t
	}
	o.UpdatedAt = now
	return nil
}

// IsActive reports whether the order still occupies its table: any
// lifecycle state other than CANCELLED combined with an unsettled payment.
func (o *Order) IsActive() bool {
	return o.Status != OrderCancelled && o.PaymentStatus != PaymentPaid
}

// Order represents one checkout unit opened at a table. Monetary
// amounts are integer cents; tax and service charge rates are recorded
// on the order in basis points so that later recomputation uses the
// rates in effect at edit time rather than live tenant config.
//
// Fields:
//  ID                – primary key identifier.
//  RestaurantID      – owning tenant.
//  TableID           – table the order was placed at.
//  Status            – lifecycle status (PENDING..SERVED, CANCELLED).
//  PaymentStatus     – PENDING, PAID or REFUNDED.
//  SubtotalCents     – sum of item extended prices.
//  TaxCents          – tax computed from TaxRateBps.
//  ServiceCents      – service charge computed from ServiceRateBps.
//  TotalCents        – subtotal + tax + service charge.
//  TaxRateBps        – tax rate snapshot in basis points.
//  ServiceRateBps    – service charge rate snapshot in basis points.
//  Version           – optimistic-lock counter, +1 per committed change.
//  ModificationCount – number of accepted modifications.
//  HasModifications  – true once any modification was accepted.
//  Items             – current line items (populated on demand).
type Order struct {
	ID                uint64        // orders.id
	RestaurantID      uint64        // orders.restaurant_id
	TableID           uint64        // orders.table_id
	Status            OrderStatus   // orders.status
	PaymentStatus     PaymentStatus // orders.payment_status
	SubtotalCents     int64         // orders.subtotal_cents
	TaxCents          int64         // orders.tax_cents
	ServiceCents      int64         // orders.service_cents
	TotalCents        int64         // orders.total_cents
	TaxRateBps        int32         // orders.tax_rate_bps
	ServiceRateBps    int32         // orders.service_rate_bps
	Version           uint32        // orders.version
	ModificationCount uint32        // orders.modification_count
	HasModifications  bool          // orders.has_modifications
	CancelledAt       *time.Time    // orders.cancelled_at (nullable)
	CreatedAt         time.Time     // orders.created_at
	UpdatedAt         time.Time     // orders.updated_at
	Items             []OrderItem   // order_items rows
}
