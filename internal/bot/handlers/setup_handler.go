package handlers

import (
	"context"

	"github.com/edgard/dayplanbot/internal/chat"
)

// newSetupHandler returns a handler for the setup command.
func newSetupHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return deps.Tracker.StartSetup(ctx, gw, cmd.Message.ChannelID, cmd.Message.AuthorID)
	}
}

// newSaveHandler returns a handler for the save command, which ends the task
// collection stage of the author's setup session.
func newSaveHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return deps.Tracker.Save(ctx, gw, cmd.Message)
	}
}
