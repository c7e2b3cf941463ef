package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/restaurant-table-orders/internal/service"
)

// OccupancySweeper periodically re-derives the occupancy status of
// every OCCUPIED table, catching tables left stale by missed
// post-commit reconciliation. The sweep is idempotent, so overlapping
// runs are harmless.
type OccupancySweeper struct {
	occupancy *service.OccupancyService
	interval  time.Duration
	logger    *slog.Logger
}

// NewOccupancySweeper builds a sweeper. Interval values below one
// minute are raised to one minute to keep the sweep from competing
// with live traffic.
func NewOccupancySweeper(occupancy *service.OccupancyService, interval time.Duration, logger *slog.Logger) *OccupancySweeper {
	if interval < time.Minute {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OccupancySweeper{occupancy: occupancy, interval: interval, logger: logger}
}

// Start runs the sweep loop until ctx is cancelled. One sweep runs
// immediately on startup so a restart clears stale tables without
// waiting a full interval.
func (w *OccupancySweeper) Start(ctx context.Context) {
	w.logger.Info("starting occupancy sweeper", "interval", w.interval)
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("occupancy sweeper stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *OccupancySweeper) runOnce(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	result, err := w.occupancy.RunSweep(sweepCtx)
	if err != nil {
		w.logger.Error("occupancy sweep failed", "error", err)
		return
	}
	if result.Fixed > 0 || len(result.Errors) > 0 {
		w.logger.Info("occupancy sweep finished",
			"checked", result.Checked, "fixed", result.Fixed, "errors", len(result.Errors))
	}
}
