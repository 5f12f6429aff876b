package tasks

import (
	"context"
	"fmt"
	"time"
)

// newPrayerCheckTask announces prayers that are due.
func newPrayerCheckTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "prayer_check")

	return func(ctx context.Context) error {
		if deps.Prayer == nil || !deps.Prayer.Enabled() {
			return nil
		}
		if err := deps.Prayer.Check(ctx, deps.Gateway); err != nil {
			log.ErrorContext(ctx, "Prayer check failed", "error", err)
			return fmt.Errorf("prayer check failed: %w", err)
		}
		return nil
	}
}

// newTikTokReportTask posts the daily challenge status.
func newTikTokReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "tiktok_report")

	return func(ctx context.Context) error {
		if deps.TikTok == nil || !deps.TikTok.Enabled() {
			return nil
		}
		if err := deps.TikTok.Report(ctx, deps.Gateway); err != nil {
			log.ErrorContext(ctx, "Challenge report failed", "error", err)
			return fmt.Errorf("tiktok report failed: %w", err)
		}
		return nil
	}
}

// newStoreMaintenanceTask runs database maintenance when the store has any.
func newStoreMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "store_maintenance")

	return func(ctx context.Context) error {
		if deps.Maintainer == nil {
			log.DebugContext(ctx, "Store needs no maintenance")
			return nil
		}
		start := time.Now()
		if err := deps.Maintainer.RunMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "Store maintenance failed", "error", err, "duration", time.Since(start))
			return fmt.Errorf("store maintenance failed: %w", err)
		}
		log.InfoContext(ctx, "Store maintenance completed", "duration", time.Since(start))
		return nil
	}
}
