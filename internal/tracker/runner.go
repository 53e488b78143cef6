package tracker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/darkred07/shoe-tracker/internal/models"
	"github.com/darkred07/shoe-tracker/internal/ratelimit"
	"github.com/darkred07/shoe-tracker/internal/store"
)

// ListingChecker checks one tracked listing.
type ListingChecker interface {
	Check(ctx context.Context, listing models.TrackedListing) ([]models.Alert, error)
}

// Notifier delivers the aggregated alerts of a run.
type Notifier interface {
	Notify(ctx context.Context, alerts []models.Alert) error
}

// Deduper drops alerts that were already sent recently.
type Deduper interface {
	Filter(ctx context.Context, alerts []models.Alert) []models.Alert
}

// Runner iterates all tracked listings once, throttling between them, then
// persists history and notifies about anything below threshold.
type Runner struct {
	listings     []models.TrackedListing
	checker      ListingChecker
	history      models.PriceHistory
	historyStore store.HistoryStore
	notifier     Notifier
	deduper      Deduper
	limiter      ratelimit.Limiter
	logger       *slog.Logger
}

func NewRunner(
	listings []models.TrackedListing,
	checker ListingChecker,
	history models.PriceHistory,
	historyStore store.HistoryStore,
	notifier Notifier,
	deduper Deduper,
	limiter ratelimit.Limiter,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		listings:     listings,
		checker:      checker,
		history:      history,
		historyStore: historyStore,
		notifier:     notifier,
		deduper:      deduper,
		limiter:      limiter,
		logger:       logger.With("component", "runner"),
	}
}

// Run performs one complete check cycle. Per-listing failures are logged and
// do not abort the cycle; only context cancellation stops it early.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.listings) == 0 {
		r.logger.Warn("no listings tracked, add entries to the tracked URLs file")
		return nil
	}

	runID := uuid.New().String()
	r.logger.Info("starting price check", "run_id", runID, "listings", len(r.listings))

	var alerts []models.Alert
	for i, listing := range r.listings {
		found, err := r.checker.Check(ctx, listing)
		if err != nil {
			r.logger.Error("listing check failed", "listing", listing.Name, "error", err)
		}
		alerts = append(alerts, found...)

		if i < len(r.listings)-1 {
			r.logger.Info("throttling before next listing")
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}

	if err := r.historyStore.Save(ctx, r.history); err != nil {
		r.logger.Error("failed to save price history", "error", err)
	}

	r.logger.Info("price check complete",
		"run_id", runID, "listings_checked", len(r.listings), "alerts", len(alerts))

	if len(alerts) == 0 {
		return nil
	}

	toSend := alerts
	if r.deduper != nil {
		toSend = r.deduper.Filter(ctx, alerts)
		if suppressed := len(alerts) - len(toSend); suppressed > 0 {
			r.logger.Info("suppressed repeated alerts", "suppressed", suppressed)
		}
	}

	if len(toSend) > 0 {
		if err := r.notifier.Notify(ctx, toSend); err != nil {
			r.logger.Error("notification failed", "error", err)
		}
	}

	return nil
}
