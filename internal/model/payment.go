package model

import "time"

// PaymentMethod enumerates accepted settlement methods.
type PaymentMethod string

const (
	MethodCash PaymentMethod = "CASH"
	MethodCard PaymentMethod = "CARD"
	MethodQR   PaymentMethod = "QR"
)

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodQR:
		return true
	}
	return false
}

// Payment is the immutable record of one settlement against one order.
// When a table settlement spans several orders, every sibling row shares
// the same receipt number; the row flagged PrimaryReceipt carries the
// full cash tendered and change so the cash drawer reconciles without
// double counting.
//
// Fields:
//  ID                 – primary key identifier.
//  OrderID            – order this payment settles.
//  RestaurantID       – owning tenant.
//  AmountCents        – the order's own total at settlement time.
//  Method             – CASH, CARD or QR.
//  CashTenderedCents  – full tendered amount (primary row only, 0 on siblings).
//  ChangeCents        – change given (primary row only, 0 on siblings).
//  ReceiptNumber      – formatted consolidated receipt number.
//  SequenceNumber     – per-tenant daily sequence backing the receipt.
//  PrimaryReceipt     – true on the first order's row of a settlement.
//  ExternalRef        – optional processor transaction reference.
//  ProcessedBy        – cashier user id.
type Payment struct {
	ID                uint64        // payments.id
	OrderID           uint64        // payments.order_id
	RestaurantID      uint64        // payments.restaurant_id
	AmountCents       int64         // payments.amount_cents
	Method            PaymentMethod // payments.method
	CashTenderedCents int64         // payments.cash_tendered_cents
	ChangeCents       int64         // payments.change_cents
	ReceiptNumber     string        // payments.receipt_number
	SequenceNumber    uint64        // payments.sequence_number
	PrimaryReceipt    bool          // payments.primary_receipt
	ExternalRef       string        // payments.external_ref
	ProcessedBy       uint64        // payments.processed_by
	CreatedAt         time.Time     // payments.created_at
}
