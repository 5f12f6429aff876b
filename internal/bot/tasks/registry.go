package tasks

import (
	"context"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks initializes and returns a map of all registered scheduled
// tasks. The keys match the task names of the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["morning_reminder"] = newMorningReminderTask(deps)
	tasks["evening_check"] = newEveningCheckTask(deps)
	tasks["prayer_check"] = newPrayerCheckTask(deps)
	tasks["tiktok_report"] = newTikTokReportTask(deps)
	tasks["store_maintenance"] = newStoreMaintenanceTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
