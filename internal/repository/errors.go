// Package repository defines error types that are reused across multiple
// repositories and the services built on them. These sentinel values allow
// higher layers such as handlers to distinguish between different failure
// scenarios and map them to transport codes. Business-rule rejections
// (conflict, policy, validation, already-settled) must never be retried
// automatically; timeout and sequence failures are safe to retry.
package repository

import "errors"

// ErrNotFound is returned when the target row does not exist, or when a
// settlement finds no eligible pending orders on the table. Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when an optimistic-lock check fails:
// the caller acted on a stale order version. The caller must re-fetch
// and retry deliberately. Maps to HTTP 409.
var ErrVersionConflict = errors.New("version conflict")

// ErrPolicyViolation is returned when the actor's role is not permitted
// to perform the requested change in the order's current lifecycle
// state. Maps to HTTP 403.
var ErrPolicyViolation = errors.New("policy violation")

// ErrValidation is returned for malformed input, such as a non-positive
// quantity, an unknown payment method, or insufficient cash tendered.
// Wrapped messages carry the detail (e.g. the exact cash shortfall).
// Maps to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrAlreadySettled is returned on attempts to modify or pay an order
// whose payment status is already PAID. Editing a paid order must go
// through a refund flow instead. Maps to HTTP 409.
var ErrAlreadySettled = errors.New("order already settled")

// ErrSequenceUnavailable is returned when the receipt sequence counter
// cannot be advanced. No receipt number means no payment may be
// created. Retryable. Maps to HTTP 503.
var ErrSequenceUnavailable = errors.New("receipt sequence unavailable")

// ErrTxTimeout is returned when a transaction exceeded its bounded
// deadline or lock wait. Retryable with the same idempotency key.
// Maps to HTTP 503.
var ErrTxTimeout = errors.New("transaction timeout")
