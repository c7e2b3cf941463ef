package model

import "time"

// OrderItem is one line of an order. The unit price is a snapshot taken
// when the line was added; catalog price changes never retroactively
// alter an open order.
//
// Fields:
//  ID             – primary key identifier.
//  OrderID        – parent order.
//  MenuItemID     – catalog reference.
//  Name           – display name snapshot.
//  Quantity       – positive count.
//  UnitPriceCents – per-unit price snapshot in cents.
//  TotalCents     – Quantity * UnitPriceCents.
type OrderItem struct {
	ID             uint64    // order_items.id
	OrderID        uint64    // order_items.order_id
	MenuItemID     uint64    // order_items.menu_item_id
	Name           string    // order_items.name
	Quantity       uint32    // order_items.quantity
	UnitPriceCents int64     // order_items.unit_price_cents
	TotalCents     int64     // order_items.total_cents
	CreatedAt      time.Time // order_items.created_at
}
