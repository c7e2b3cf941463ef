package service

import (
	"testing"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
)

func TestApplyRateRoundsHalfUp(t *testing.T) {
	cases := []struct {
		cents int64
		bps   int32
		want  int64
	}{
		{10000, 825, 825},  // exact
		{1000, 825, 83},    // 82.5 rounds up
		{999, 825, 82},     // 82.4175 rounds down
		{1, 825, 0},        // 0.0825 rounds down
		{61, 825, 5},       // 5.0325 rounds down
		{0, 825, 0},        // nothing due on zero
		{-500, 825, 0},     // negative subtotal never yields negative tax
		{10000, 0, 0},      // zero rate
		{10000, 1000, 1000}, // 10%
	}
	for _, c := range cases {
		if got := applyRate(c.cents, c.bps); got != c.want {
			t.Errorf("applyRate(%d, %d) = %d, want %d", c.cents, c.bps, got, c.want)
		}
	}
}

func TestComputeTotals(t *testing.T) {
	items := []model.OrderItem{
		{Quantity: 2, UnitPriceCents: 1250, TotalCents: 2500},
		{Quantity: 1, UnitPriceCents: 799, TotalCents: 799},
	}
	got := ComputeTotals(items, 825, 1000)
	if got.SubtotalCents != 3299 {
		t.Fatalf("subtotal = %d, want 3299", got.SubtotalCents)
	}
	// 3299 * 8.25% = 272.1675 -> 272; 3299 * 10% = 329.9 -> 330.
	if got.TaxCents != 272 {
		t.Fatalf("tax = %d, want 272", got.TaxCents)
	}
	if got.ServiceCents != 330 {
		t.Fatalf("service = %d, want 330", got.ServiceCents)
	}
	if got.TotalCents != 3299+272+330 {
		t.Fatalf("total = %d, want %d", got.TotalCents, 3299+272+330)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(nil, 825, 1000)
	if got.SubtotalCents != 0 || got.TaxCents != 0 || got.ServiceCents != 0 || got.TotalCents != 0 {
		t.Fatalf("expected all-zero totals for empty items, got %+v", got)
	}
}

func TestExtendedPrice(t *testing.T) {
	if got := extendedPrice(3, 1250); got != 3750 {
		t.Fatalf("extendedPrice(3, 1250) = %d, want 3750", got)
	}
}
