package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/dayplanbot/internal/chat"
)

const welcomeText = "I keep track of your channel's tasks and spread them across the days you choose. " +
	"Every morning I post today's tasks and every evening I ask what you finished."

// newHelpHandler returns a handler for the help command.
func newHelpHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return gw.SendCard(ctx, cmd.Message.ChannelID, helpCard(deps, "📖 Commands", ""))
	}
}

// newStartHandler returns a handler for the start command.
func newStartHandler(deps HandlerDeps) CommandFunc {
	return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
		return gw.SendCard(ctx, cmd.Message.ChannelID, helpCard(deps, "👋 Welcome", welcomeText))
	}
}

func helpCard(deps HandlerDeps, title, intro string) chat.Card {
	var b strings.Builder
	for _, c := range describe(RegisterAllCommands(deps)) {
		fmt.Fprintf(&b, "%s%s - %s\n", deps.Prefix, c.Name, c.Description)
	}
	card := chat.Card{
		Title:       title,
		Description: intro,
		Color:       chat.ColorBlue,
		Footer:      fmt.Sprintf("Start with %ssetup", deps.Prefix),
	}
	card.AddField("Commands", strings.TrimRight(b.String(), "\n"), false)
	return card
}
