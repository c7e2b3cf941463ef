package service

import (
	"errors"
	"testing"

	"github.com/iliyamo/restaurant-table-orders/internal/repository"
)

func validModifyRequest() ModifyOrderRequest {
	return ModifyOrderRequest{
		OrderID:          1,
		RequestedVersion: 1,
		IdempotencyKey:   "key-1",
		Actor:            Actor{UserID: 9, Role: "WAITER", RestaurantID: 1},
		Changes: []ItemChange{
			{Action: ActionAddItem, MenuItemID: 5, Name: "Margherita", Quantity: 1, UnitPriceCents: 1250},
		},
	}
}

func TestModifyOrderRequestValidate(t *testing.T) {
	valid := validModifyRequest()
	if err := valid.validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*ModifyOrderRequest)
	}{
		{"missing order id", func(r *ModifyOrderRequest) { r.OrderID = 0 }},
		{"missing idempotency key", func(r *ModifyOrderRequest) { r.IdempotencyKey = "" }},
		{"no changes", func(r *ModifyOrderRequest) { r.Changes = nil }},
		{"add without menu item", func(r *ModifyOrderRequest) { r.Changes[0].MenuItemID = 0 }},
		{"add without name", func(r *ModifyOrderRequest) { r.Changes[0].Name = "" }},
		{"add with zero quantity", func(r *ModifyOrderRequest) { r.Changes[0].Quantity = 0 }},
		{"add with zero price", func(r *ModifyOrderRequest) { r.Changes[0].UnitPriceCents = 0 }},
		{"remove without item id", func(r *ModifyOrderRequest) {
			r.Changes[0] = ItemChange{Action: ActionRemoveItem}
		}},
		{"quantity change to zero", func(r *ModifyOrderRequest) {
			r.Changes[0] = ItemChange{Action: ActionChangeQuantity, OrderItemID: 3, Quantity: 0}
		}},
		{"unknown action", func(r *ModifyOrderRequest) {
			r.Changes[0].Action = ItemAction("SWAP_ITEM")
		}},
	}
	for _, c := range cases {
		req := validModifyRequest()
		c.mutate(&req)
		err := req.validate()
		if err == nil {
			t.Errorf("%s: expected validation error", c.name)
			continue
		}
		if !errors.Is(err, repository.ErrValidation) {
			t.Errorf("%s: error %v is not ErrValidation", c.name, err)
		}
	}
}
