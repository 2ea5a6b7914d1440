package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/daylogapp/daylog-server/internal/config"
	"github.com/daylogapp/daylog-server/internal/logger"
	"github.com/daylogapp/daylog-server/internal/ratelimit"
	"github.com/daylogapp/daylog-server/internal/service"
)

// ExportLimiterHandle wraps the export rate limiter with Shutdownable.
type ExportLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
	retryAfter time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *ExportLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideExportLimiter provides the per-client limiter for full exports.
func ProvideExportLimiter(i do.Injector) (*ExportLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	n := cfg.Export.RatePerMinute
	return &ExportLimiterHandle{
		KeyedRateLimiter: ratelimit.PerMinute(n),
		retryAfter:       time.Minute / time.Duration(n),
	}, nil
}

// UsageReconcileJob periodically repairs drifted day tag usage counts.
type UsageReconcileJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *UsageReconcileJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideUsageReconcileJob provides the periodic usage count reconciliation.
func ProvideUsageReconcileJob(i do.Injector) (*UsageReconcileJob, error) {
	dayTags := do.MustInvoke[*service.DayTagService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(reconcileInterval)
		defer ticker.Stop()

		// Initial pass on startup
		if _, err := dayTags.ReconcileUsageCounts(ctx); err != nil {
			log.WithError(err).Warn("Initial usage reconcile failed")
		}

		for {
			select {
			case <-ticker.C:
				if _, err := dayTags.ReconcileUsageCounts(ctx); err != nil {
					log.WithError(err).Warn("Usage reconcile failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Usage reconcile job started", "interval", reconcileInterval)

	return &UsageReconcileJob{cancel: cancel}, nil
}
