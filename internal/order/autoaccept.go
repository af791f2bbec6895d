package order

import (
	"context"
	"log/slog"
	"time"

	"github.com/medikart/medikart/internal/observability/logger"
)

// AutoAcceptJob accepts pending orders that a tenant admin has left
// untouched past a configured age. Each row is transitioned through the
// same guarded UpdateStatus as a manual accept, so a rerun after a
// mid-batch failure simply skips rows that already moved.
type AutoAcceptJob struct {
	service  *Service
	after    time.Duration
	interval time.Duration
	batch    int
}

// NewAutoAcceptJob creates the background job.
func NewAutoAcceptJob(service *Service, after, interval time.Duration) *AutoAcceptJob {
	return &AutoAcceptJob{
		service:  service,
		after:    after,
		interval: interval,
		batch:    100,
	}
}

// Run blocks until ctx is cancelled, executing one sweep per interval.
func (j *AutoAcceptJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "auto-accept sweep failed",
					logger.Component("auto_accept"),
					logger.Error(err),
				)
			}
		}
	}
}

// Sweep accepts one batch of stale pending orders.
func (j *AutoAcceptJob) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-j.after)
	stale, err := j.service.repo.ListStalePending(ctx, cutoff, j.batch)
	if err != nil {
		return err
	}

	for _, o := range stale {
		if _, err := j.service.Transition(ctx, o.TenantID, o.ID, StatusAccepted, "", "auto-accepted"); err != nil {
			// A concurrent manual transition loses the race here; that is
			// expected and the sweep moves on.
			slog.WarnContext(ctx, "auto-accept skipped order",
				logger.Component("auto_accept"),
				logger.OrderID(o.ID),
				logger.TenantID(o.TenantID),
				logger.Error(err),
			)
			continue
		}
		slog.InfoContext(ctx, "order auto-accepted",
			logger.Component("auto_accept"),
			logger.OrderID(o.ID),
			logger.TenantID(o.TenantID),
		)
	}
	return nil
}
