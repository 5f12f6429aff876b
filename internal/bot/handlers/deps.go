package handlers

import (
	"log/slog"

	"github.com/edgard/dayplanbot/internal/prayer"
	"github.com/edgard/dayplanbot/internal/tiktok"
	"github.com/edgard/dayplanbot/internal/tracker"
)

// HandlerDeps provides dependencies for chat command handlers. Prayer and
// TikTok are optional.
type HandlerDeps struct {
	Logger  *slog.Logger
	Prefix  string
	Tracker *tracker.Tracker
	Prayer  *prayer.Service
	TikTok  *tiktok.Challenge
}
