package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/dayplanbot/internal/chat"
	"github.com/edgard/dayplanbot/internal/tracker"
)

// clearTimeout bounds the clear command, which rewrites the whole store.
const clearTimeout = 30 * time.Second

func newListHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return deps.Tracker.ShowTaskList(ctx, gw, cmd.Message.ChannelID)
	}
}

func newAddHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return deps.Tracker.AddTask(ctx, gw, cmd.Message.ChannelID, cmd.Args)
	}
}

func newRemoveHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		arg, _, _ := strings.Cut(strings.TrimSpace(cmd.Args), " ")
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return &tracker.UserError{
				Title:   "❌ Error",
				Message: fmt.Sprintf("Usage: `%sremove <task id>`", deps.Prefix),
				Err:     tracker.ErrTaskNotFound,
			}
		}
		return deps.Tracker.RemoveTask(ctx, gw, cmd.Message.ChannelID, id)
	}
}

func newClearHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return deps.Tracker.Clear(ctx, gw, cmd.Message.ChannelID)
	}
}
