package core

// scheduler.go runs periodic maintenance: audit entries older than the
// retention window are purged. It runs until its context is cancelled and
// logs failures without stopping.

import (
	"context"
	"log/slog"
	"time"
)

// AuditPurger deletes audit entries created before a cutoff.
type AuditPurger interface {
	PurgeAudit(ctx context.Context, before time.Time) (int64, error)
}

// RetentionConfig holds settings for the retention scheduler.
type RetentionConfig struct {
	Retention     time.Duration // Entries older than this are purged
	CheckInterval time.Duration // How often to run
}

// StartRetentionScheduler purges old audit entries immediately and then
// every CheckInterval. It blocks until ctx is cancelled.
func StartRetentionScheduler(ctx context.Context, p AuditPurger, cfg RetentionConfig) {
	slog.Info("retention scheduler started",
		"retention", cfg.Retention.String(),
		"interval", cfg.CheckInterval.String(),
	)

	runRetentionJob(ctx, p, cfg.Retention, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case now := <-ticker.C:
			runRetentionJob(ctx, p, cfg.Retention, now)
		}
	}
}

// runRetentionJob performs one purge.
func runRetentionJob(ctx context.Context, p AuditPurger, retention time.Duration, now time.Time) {
	start := time.Now()
	purged, err := p.PurgeAudit(ctx, now.Add(-retention))
	if err != nil {
		slog.Error("audit purge failed", "error", err)
		return
	}
	slog.Info("purged audit entries",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
