package handlers

import (
	"context"
	"sort"

	"github.com/edgard/dayplanbot/internal/chat"
)

// Command is a parsed chat command.
type Command struct {
	Name    string
	Args    string
	Message chat.Message
}

// CommandFunc handles one command. Returned errors are rendered to the
// command's channel by the Router.
type CommandFunc func(ctx context.Context, gw chat.Gateway, cmd Command) error

// Middleware wraps a CommandFunc.
type Middleware func(next CommandFunc) CommandFunc

// RegisteredHandler represents a command handler with its description and middleware.
type RegisteredHandler struct {
	Description string
	Handler     CommandFunc
	Middleware  []Middleware
}

// CommandInfo describes a command for help output and platform command menus.
type CommandInfo struct {
	Name        string
	Description string
}

// RegisterAllCommands initializes and returns a map of all available bot
// commands keyed by name, without the prefix.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["start"] = RegisteredHandler{
		Description: "Show the welcome message",
		Handler:     newStartHandler(deps),
	}
	handlers["help"] = RegisteredHandler{
		Description: "List the available commands",
		Handler:     newHelpHandler(deps),
	}

	handlers["setup"] = RegisteredHandler{
		Description: "Start setting up tasks for this channel",
		Handler:     newSetupHandler(deps),
	}
	handlers["save"] = RegisteredHandler{
		Description: "Finish adding tasks during setup",
		Handler:     newSaveHandler(deps),
	}
	handlers["list"] = RegisteredHandler{
		Description: "Show all tasks and today's tasks",
		Handler:     newListHandler(deps),
	}
	handlers["add"] = RegisteredHandler{
		Description: "Add a task: add <task name>",
		Handler:     newAddHandler(deps),
	}
	handlers["remove"] = RegisteredHandler{
		Description: "Remove a task: remove <task id>",
		Handler:     newRemoveHandler(deps),
	}
	handlers["clear"] = RegisteredHandler{
		Description: "Clear all tasks of this channel",
		Handler:     newClearHandler(deps),
		Middleware:  []Middleware{WithTimeout(clearTimeout)},
	}

	if deps.Prayer != nil {
		handlers["gettime"] = RegisteredHandler{
			Description: "Show today's prayer times",
			Handler:     newPrayerTimesHandler(deps),
		}
	}
	if deps.TikTok != nil {
		handlers["tiktok"] = RegisteredHandler{
			Description: "Show the TikTok challenge status",
			Handler:     newTikTokHandler(deps),
		}
	}

	return handlers
}

// describe lists the registered commands sorted by name.
func describe(handlers map[string]RegisteredHandler) []CommandInfo {
	out := make([]CommandInfo, 0, len(handlers))
	for name, h := range handlers {
		out = append(out, CommandInfo{Name: name, Description: h.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
