package tasks

import (
	"context"
	"fmt"
)

// newMorningReminderTask posts today's tasks to every active channel.
func newMorningReminderTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "morning_reminder")

	return func(ctx context.Context) error {
		if err := deps.Tracker.SendMorningReminders(ctx, deps.Gateway); err != nil {
			log.ErrorContext(ctx, "Some morning reminders failed", "error", err)
			return fmt.Errorf("morning reminder failed: %w", err)
		}
		return nil
	}
}

// newEveningCheckTask asks every active channel whether today's tasks are done.
func newEveningCheckTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "evening_check")

	return func(ctx context.Context) error {
		if err := deps.Tracker.RunEveningCheck(ctx, deps.Gateway); err != nil {
			log.ErrorContext(ctx, "Some evening checks failed", "error", err)
			return fmt.Errorf("evening check failed: %w", err)
		}
		return nil
	}
}
