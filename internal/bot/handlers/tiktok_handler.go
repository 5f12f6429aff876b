package handlers

import (
	"context"

	"github.com/edgard/dayplanbot/internal/chat"
)

// newTikTokHandler returns a handler posting the challenge status. It only
// answers in the challenge channel.
func newTikTokHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return deps.TikTok.HandleCommand(ctx, gw, cmd.Message.ChannelID)
	}
}
