// Package queue defines message payloads exchanged over the message broker
// and the background consumer feeding the receipt journal.
package queue

// PaymentCompletedEvent is published once per settled order after the
// settlement transaction commits. It carries enough information for
// dashboards and the receipt journal without querying the primary
// database. Sibling orders of one table settlement share ReceiptNumber.
type PaymentCompletedEvent struct {
	PaymentID     uint64 `json:"payment_id"`
	OrderID       uint64 `json:"order_id"`
	RestaurantID  uint64 `json:"restaurant_id"`
	TableID       uint64 `json:"table_id"`
	AmountCents   int64  `json:"amount_cents"`
	Method        string `json:"method"`
	ReceiptNumber string `json:"receipt_number"`
	ProcessedBy   uint64 `json:"processed_by"`
	CompletedAt   string `json:"completed_at"`
}

// TableStatusChangedEvent is published when the occupancy reconciler
// flips a table between AVAILABLE and OCCUPIED, so floor dashboards
// update in real time. Manual RESERVED changes are published by the
// table handler through the same queue.
type TableStatusChangedEvent struct {
	TableID      uint64 `json:"table_id"`
	RestaurantID uint64 `json:"restaurant_id"`
	Label        string `json:"label"`
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
	ChangedAt    string `json:"changed_at"`
}
