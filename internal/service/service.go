// Package service implements the order lifecycle and payment
// consistency engine: order modification with optimistic locking and
// idempotency, consolidated table settlement, receipt sequencing and
// table occupancy derivation. Services own their transaction
// boundaries; repositories only run statements against a supplied
// *sql.Tx. Money is integer cents throughout.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/restaurant-table-orders/internal/repository"
)

// Actor is the authenticated staff identity resolved by the transport
// layer. The core consumes only the id for audit fields and the role
// for policy checks.
type Actor struct {
	UserID       uint64
	Role         Role
	RestaurantID uint64
}

// DefaultTxTimeout bounds every mutating transaction so a stuck lock
// surfaces as a retryable error instead of hanging the cashier.
const DefaultTxTimeout = 5 * time.Second

// txContext derives the bounded context all mutating transactions run under.
func txContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTxTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// mapTxErr converts a context deadline into the retryable timeout
// sentinel so callers can tell "try again" from a business rejection.
func mapTxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return repository.ErrTxTimeout
	}
	return err
}
