package service

import (
	"testing"

	"github.com/iliyamo/restaurant-table-orders/internal/model"
)

func TestAllowChange(t *testing.T) {
	cases := []struct {
		status model.OrderStatus
		role   Role
		action ItemAction
		want   bool
	}{
		{model.OrderPending, RoleWaiter, ActionAddItem, true},
		{model.OrderPending, RoleWaiter, ActionRemoveItem, true},
		{model.OrderConfirmed, RoleCashier, ActionChangeQuantity, true},
		{model.OrderPreparing, RoleWaiter, ActionAddItem, true},
		{model.OrderPreparing, RoleWaiter, ActionRemoveItem, false},
		{model.OrderPreparing, RoleManager, ActionRemoveItem, true},
		{model.OrderPreparing, RoleAdmin, ActionChangeQuantity, true},
		{model.OrderReady, RoleWaiter, ActionAddItem, false},
		{model.OrderReady, RoleManager, ActionAddItem, true},
		{model.OrderServed, RoleCashier, ActionRemoveItem, false},
		{model.OrderServed, RoleAdmin, ActionRemoveItem, true},
		{model.OrderCancelled, RoleAdmin, ActionAddItem, false},
		{model.OrderPending, Role("COOK"), ActionAddItem, false},
	}
	for _, c := range cases {
		if got := AllowChange(c.status, c.role, c.action); got != c.want {
			t.Errorf("AllowChange(%s, %s, %s) = %v, want %v", c.status, c.role, c.action, got, c.want)
		}
	}
}

func TestAllowStatusChange(t *testing.T) {
	if !AllowStatusChange(RoleWaiter, model.OrderServed) {
		t.Fatalf("expected waiter to move orders to SERVED")
	}
	if AllowStatusChange(RoleWaiter, model.OrderCancelled) {
		t.Fatalf("expected cancellation to require a manager")
	}
	if !AllowStatusChange(RoleManager, model.OrderCancelled) {
		t.Fatalf("expected manager to cancel orders")
	}
	if AllowStatusChange(RoleAdmin, model.OrderStatus("UNKNOWN")) {
		t.Fatalf("expected unknown target status to be rejected")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleManager, RoleCashier, RoleWaiter} {
		if !ValidRole(r) {
			t.Errorf("ValidRole(%s) = false", r)
		}
	}
	if ValidRole(Role("OWNER")) {
		t.Errorf("expected OWNER to be rejected")
	}
}
