package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/edgard/dayplanbot/internal/chat"
	"github.com/edgard/dayplanbot/internal/tracker"
)

// ParseCommand splits text into a lowercase command name and its raw
// arguments. A "@botname" suffix on the name is dropped. ok is false when
// text does not start with prefix or names no command.
func ParseCommand(prefix, text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", "", false
	}
	rest := text[len(prefix):]
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], strings.TrimSpace(rest[i:])
	} else {
		name = rest
	}
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), args, true
}

// Router dispatches gateway events to command handlers and the tracker.
type Router struct {
	deps     HandlerDeps
	handlers map[string]CommandFunc
	commands []CommandInfo
	log      *slog.Logger
}

// NewRouter registers every command with its middleware.
func NewRouter(deps HandlerDeps) *Router {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := deps.Logger.With("component", "router")
	registered := RegisterAllCommands(deps)

	handlers := make(map[string]CommandFunc, len(registered))
	for name, h := range registered {
		mws := append([]Middleware{WithRecover(), WithLogging(log.With("handler", name))}, h.Middleware...)
		handlers[name] = chain(h.Handler, mws...)
	}
	return &Router{
		deps:     deps,
		handlers: handlers,
		commands: describe(registered),
		log:      log,
	}
}

// Commands lists the registered commands sorted by name.
func (r *Router) Commands() []CommandInfo {
	return r.commands
}

// HandleMessage runs the command in msg, or feeds a plain message to the
// author's setup session. Errors are reported to the channel.
func (r *Router) HandleMessage(ctx context.Context, gw chat.Gateway, msg chat.Message) {
	if name, args, ok := ParseCommand(r.deps.Prefix, msg.Content); ok {
		h, found := r.handlers[name]
		if !found {
			r.log.DebugContext(ctx, "Ignoring unknown command", "command", name, "channel_id", msg.ChannelID)
			return
		}
		if err := h(ctx, gw, Command{Name: name, Args: args, Message: msg}); err != nil {
			r.reportError(ctx, gw, msg.ChannelID, err)
		}
		return
	}

	if _, err := r.deps.Tracker.HandleMessage(ctx, gw, msg); err != nil {
		r.reportError(ctx, gw, msg.ChannelID, err)
	}
}

// HandleInteraction passes a button press to the tracker.
func (r *Router) HandleInteraction(ctx context.Context, gw chat.Gateway, in chat.Interaction) {
	if err := r.deps.Tracker.HandleInteraction(ctx, gw, in); err != nil {
		r.reportError(ctx, gw, in.ChannelID, err)
	}
}

func (r *Router) reportError(ctx context.Context, gw chat.Gateway, channelID string, err error) {
	var ue *tracker.UserError
	if errors.As(err, &ue) {
		r.log.DebugContext(ctx, "User error", "channel_id", channelID, "error", err)
	} else {
		r.log.ErrorContext(ctx, "Failed to handle event", "channel_id", channelID, "error", err)
	}
	if channelID == "" {
		return
	}
	if sendErr := gw.SendCard(ctx, channelID, tracker.ErrorCard(err)); sendErr != nil {
		r.log.ErrorContext(ctx, "Failed to send error message", "channel_id", channelID, "error", sendErr)
	}
}
