package model

import "time"

// ItemChangeType enumerates the ways a single line can be edited.
type ItemChangeType string

const (
	ChangeAdded           ItemChangeType = "ADDED"
	ChangeRemoved         ItemChangeType = "REMOVED"
	ChangeQuantityChanged ItemChangeType = "QUANTITY_CHANGED"
)

// OrderModification is the immutable audit record of one accepted edit.
// Rows are written once inside the modification transaction and never
// updated or deleted. The idempotency key is unique so that a retried
// request maps back to the original row.
type OrderModification struct {
	ID             uint64    // order_modifications.id
	OrderID        uint64    // order_modifications.order_id
	IdempotencyKey string    // order_modifications.idempotency_key (unique)
	OldTotalCents  int64     // order_modifications.old_total_cents
	NewTotalCents  int64     // order_modifications.new_total_cents
	Reason         string    // order_modifications.reason
	ActorID        uint64    // order_modifications.actor_id
	CreatedAt      time.Time // order_modifications.created_at

	Items []ModificationItem // order_modification_items rows
}

// ModificationItem describes one item-level change under a modification.
type ModificationItem struct {
	ID             uint64         // order_modification_items.id
	ModificationID uint64         // order_modification_items.modification_id
	MenuItemID     uint64         // order_modification_items.menu_item_id
	ChangeType     ItemChangeType // order_modification_items.change_type
	OldQuantity    uint32         // order_modification_items.old_quantity
	NewQuantity    uint32         // order_modification_items.new_quantity
	UnitPriceCents int64          // order_modification_items.unit_price_cents
}
