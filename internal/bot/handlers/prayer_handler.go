package handlers

import (
	"context"

	"github.com/edgard/dayplanbot/internal/chat"
)

// newPrayerTimesHandler returns a handler listing today's prayer times.
func newPrayerTimesHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return gw.SendCard(ctx, cmd.Message.ChannelID, deps.Prayer.TodayCard(ctx))
	}
}
