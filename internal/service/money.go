package service

import "github.com/iliyamo/restaurant-table-orders/internal/model"

// Totals holds the recomputed money fields of an order in cents.
type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	ServiceCents  int64
	TotalCents    int64
}

// applyRate multiplies cents by a basis-point rate with half-up
// rounding. Integer arithmetic only; binary floating point never
// touches monetary values.
func applyRate(cents int64, bps int32) int64 {
	if cents <= 0 || bps <= 0 {
		return 0
	}
	return (cents*int64(bps) + 5000) / 10000
}

// ComputeTotals recomputes an order's totals from its current item set
// and the rate snapshot recorded on the order. Editing one line never
// perturbs the others beyond the arithmetic change.
func ComputeTotals(items []model.OrderItem, taxBps, serviceBps int32) Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += it.TotalCents
	}
	tax := applyRate(subtotal, taxBps)
	service := applyRate(subtotal, serviceBps)
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ServiceCents:  service,
		TotalCents:    subtotal + tax + service,
	}
}

// extendedPrice is a line's quantity times its stored unit price.
func extendedPrice(quantity uint32, unitPriceCents int64) int64 {
	return int64(quantity) * unitPriceCents
}
