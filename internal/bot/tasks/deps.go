// Package tasks implements the scheduled jobs of the bot: the tracker's
// morning and evening runs, prayer reminders, the challenge report and store
// maintenance.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/dayplanbot/internal/chat"
	"github.com/edgard/dayplanbot/internal/prayer"
	"github.com/edgard/dayplanbot/internal/tiktok"
	"github.com/edgard/dayplanbot/internal/tracker"
)

// Maintainer is a store that needs periodic upkeep.
type Maintainer interface {
	RunMaintenance(ctx context.Context) error
}

// TaskDeps contains all dependencies required by scheduled tasks. Prayer,
// TikTok and Maintainer are optional; their tasks do nothing without them.
type TaskDeps struct {
	Logger     *slog.Logger
	Gateway    chat.Gateway
	Tracker    *tracker.Tracker
	Prayer     *prayer.Service
	TikTok     *tiktok.Challenge
	Maintainer Maintainer
}
