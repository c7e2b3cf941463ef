package service

import "github.com/iliyamo/restaurant-table-orders/internal/model"

// Role is the closed set of staff roles the policy table recognizes.
// The value matches the JWT "role" claim.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleCashier Role = "CASHIER"
	RoleWaiter  Role = "WAITER"
)

// ValidRole reports whether r is a known staff role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier, RoleWaiter:
		return true
	}
	return false
}

// ItemAction enumerates the item-level edits a modification request may carry.
type ItemAction string

const (
	ActionAddItem        ItemAction = "ADD_ITEM"
	ActionRemoveItem     ItemAction = "REMOVE_ITEM"
	ActionChangeQuantity ItemAction = "CHANGE_QUANTITY"
)

type roleSet map[Role]bool

var allStaff = roleSet{RoleAdmin: true, RoleManager: true, RoleCashier: true, RoleWaiter: true}
var managers = roleSet{RoleAdmin: true, RoleManager: true}

// editPolicy is the single source of truth for which role may apply
// which item change in which order state. A missing entry means the
// change is not permitted.
var editPolicy = map[model.OrderStatus]map[ItemAction]roleSet{
	model.OrderPending: {
		ActionAddItem:        allStaff,
		ActionRemoveItem:     allStaff,
		ActionChangeQuantity: allStaff,
	},
	model.OrderConfirmed: {
		ActionAddItem:        allStaff,
		ActionRemoveItem:     allStaff,
		ActionChangeQuantity: allStaff,
	},
	// Once the kitchen has started, removing or shrinking lines wastes
	// prepared food, so those edits need a manager.
	model.OrderPreparing: {
		ActionAddItem:        allStaff,
		ActionRemoveItem:     managers,
		ActionChangeQuantity: managers,
	},
	model.OrderReady: {
		ActionAddItem:        managers,
		ActionRemoveItem:     managers,
		ActionChangeQuantity: managers,
	},
	model.OrderServed: {
		ActionAddItem:        managers,
		ActionRemoveItem:     managers,
		ActionChangeQuantity: managers,
	},
	// Terminal: no edits at all.
	model.OrderCancelled: {},
}

// AllowChange reports whether the actor's role may apply the requested
// item change given the order's current lifecycle status.
func AllowChange(status model.OrderStatus, role Role, action ItemAction) bool {
	actions, ok := editPolicy[status]
	if !ok {
		return false
	}
	return actions[action][role]
}

// statusPolicy maps lifecycle targets to the roles allowed to set them.
var statusPolicy = map[model.OrderStatus]roleSet{
	model.OrderConfirmed: allStaff,
	model.OrderPreparing: allStaff,
	model.OrderReady:     allStaff,
	model.OrderServed:    allStaff,
	model.OrderCancelled: managers,
}

// AllowStatusChange reports whether the role may move an order to the
// target lifecycle status. Cancellation is reserved for managers.
func AllowStatusChange(role Role, to model.OrderStatus) bool {
	return statusPolicy[to][role]
}
