package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/restaurant-table-orders/internal/repository"
)

// SequenceService issues gap-free, strictly increasing receipt numbers
// per tenant per calendar day. It is the named operation all call sites
// must go through; no ad hoc aggregate queries.
type SequenceService struct {
	db        *sql.DB
	sequences *repository.SequenceRepo
	timeout   time.Duration
	logger    *slog.Logger
}

// NewSequenceService constructs the service. timeout bounds the
// counter increment; zero selects the default.
func NewSequenceService(db *sql.DB, sequences *repository.SequenceRepo, timeout time.Duration, logger *slog.Logger) *SequenceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SequenceService{db: db, sequences: sequences, timeout: timeout, logger: logger}
}

// sequenceDay is the calendar-day key counters are scoped by, in UTC.
func sequenceDay(now time.Time) string {
	return now.UTC().Format("20060102")
}

// FormatReceiptNumber builds the human-readable receipt string: tenant
// prefix and id, the day, and the zero-padded daily sequence.
func FormatReceiptNumber(prefix string, restaurantID uint64, day string, seq uint64) string {
	if prefix == "" {
		prefix = "RCP"
	}
	return fmt.Sprintf("%s%d-%s-%04d", prefix, restaurantID, day, seq)
}

// NextReceiptNumber advances the tenant's daily counter and returns the
// raw sequence plus the formatted receipt number. When the store is
// unreachable the call fails with ErrSequenceUnavailable and the caller
// must not proceed to create a Payment.
func (s *SequenceService) NextReceiptNumber(ctx context.Context, restaurantID uint64) (uint64, string, error) {
	ctx, cancel := txContext(ctx, s.timeout)
	defer cancel()

	day := sequenceDay(time.Now())
	seq, err := s.sequences.Next(ctx, restaurantID, day)
	if err != nil {
		s.logger.Error("receipt sequence advance failed", "restaurant_id", restaurantID, "error", err)
		return 0, "", fmt.Errorf("%w: %v", repository.ErrSequenceUnavailable, mapTxErr(err))
	}

	var prefix string
	if err := s.db.QueryRowContext(ctx, `SELECT receipt_prefix FROM restaurants WHERE id = ?`, restaurantID).Scan(&prefix); err != nil {
		// The number is already burned; still return a usable receipt
		// string rather than fail the settlement over a display prefix.
		prefix = ""
	}
	return seq, FormatReceiptNumber(prefix, restaurantID, day, seq), nil
}
