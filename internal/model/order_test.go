package model

import (
	"testing"
	"time"
)

func TestCanTransitionAndApply(t *testing.T) {
	if !CanTransition(OrderPending, OrderConfirmed) {
		t.Fatalf("expected pending -> confirmed allowed")
	}
	if CanTransition(OrderServed, OrderPending) {
		t.Fatalf("expected served -> pending not allowed")
	}
	if CanTransition(OrderCancelled, OrderConfirmed) {
		t.Fatalf("expected cancelled to be terminal")
	}
	if !CanTransition(OrderPreparing, OrderPreparing) {
		t.Fatalf("expected self transition to be a no-op allow")
	}

	o := &Order{Status: OrderPending}
	now := time.Now()
	if err := ApplyTransition(o, OrderConfirmed, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if o.Status != OrderConfirmed {
		t.Fatalf("expected status confirmed, got %s", o.Status)
	}

	if err := ApplyTransition(o, OrderServed, now); err == nil {
		t.Fatalf("expected invalid shortcut transition to fail")
	}
}

func TestApplyTransitionSetsCancelledAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	o := &Order{Status: OrderPreparing}
	if err := ApplyTransition(o, OrderCancelled, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if o.CancelledAt == nil || !o.CancelledAt.Equal(now) {
		t.Fatalf("expected CancelledAt %v, got %v", now, o.CancelledAt)
	}
	// A repeated cancel must not move the timestamp.
	later := now.Add(time.Hour)
	if err := ApplyTransition(o, OrderCancelled, later); err != nil {
		t.Fatalf("ApplyTransition repeat: %v", err)
	}
	if !o.CancelledAt.Equal(now) {
		t.Fatalf("expected CancelledAt to stay %v, got %v", now, o.CancelledAt)
	}
}

func TestIsActive(t *testing.T) {
	cases := []struct {
		status  OrderStatus
		payment PaymentStatus
		want    bool
	}{
		{OrderPending, PaymentPending, true},
		{OrderServed, PaymentPending, true},
		{OrderServed, PaymentPaid, false},
		{OrderCancelled, PaymentPending, false},
		{OrderCancelled, PaymentPaid, false},
	}
	for _, c := range cases {
		o := &Order{Status: c.status, PaymentStatus: c.payment}
		if got := o.IsActive(); got != c.want {
			t.Errorf("IsActive(%s/%s) = %v, want %v", c.status, c.payment, got, c.want)
		}
	}
}
