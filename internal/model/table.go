package model

import "time"

// TableStatus is the displayed occupancy state of a table.
// AVAILABLE and OCCUPIED are derived from the table's orders; RESERVED
// is an exclusively manual state that derivation must never override.
type TableStatus string

const (
	TableAvailable TableStatus = "AVAILABLE"
	TableOccupied  TableStatus = "OCCUPIED"
	TableReserved  TableStatus = "RESERVED"
)

// Table is a physical unit guests order from via its QR token.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – owning tenant.
//  Label        – human-readable table number/name.
//  Capacity     – seat count.
//  Status       – AVAILABLE, OCCUPIED or RESERVED.
//  QRToken      – durable opaque token embedded in the printed QR code.
type Table struct {
	ID           uint64      // tables.id
	RestaurantID uint64      // tables.restaurant_id
	Label        string      // tables.label
	Capacity     uint32      // tables.capacity
	Status       TableStatus // tables.status
	QRToken      string      // tables.qr_token
	CreatedAt    time.Time   // tables.created_at
	UpdatedAt    time.Time   // tables.updated_at
}

// Restaurant carries the tenant configuration the settlement core needs:
// the tax and service-charge rates applied when order totals are
// recomputed.
type Restaurant struct {
	ID             uint64    // restaurants.id
	Name           string    // restaurants.name
	ReceiptPrefix  string    // restaurants.receipt_prefix
	TaxRateBps     int32     // restaurants.tax_rate_bps
	ServiceRateBps int32     // restaurants.service_rate_bps
	CreatedAt      time.Time // restaurants.created_at
}
