package service

import "testing"

func TestCashShortfall(t *testing.T) {
	if got := CashShortfall(5000, 5000); got != 0 {
		t.Fatalf("exact tender: got %d, want 0", got)
	}
	if got := CashShortfall(5000, 10000); got != 0 {
		t.Fatalf("overpayment: got %d, want 0", got)
	}
	if got := CashShortfall(5000, 4999); got != 1 {
		t.Fatalf("one cent short: got %d, want 1", got)
	}
	if got := CashShortfall(5000, 0); got != 5000 {
		t.Fatalf("no tender: got %d, want 5000", got)
	}
}
