// Package logger builds the application slog logger and the update logging
// middleware of the Telegram gateway.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ParseLevel maps a configured level name to a slog level. Unknown names are info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger writing to stdout and installs it as the slog
// default. With jsonOutput the records are JSON, otherwise text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := New(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

// New creates a logger writing to w.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Middleware logs every Telegram update before and after it is handled.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()
			logEntry := UpdateLogger(log, update)

			logEntry.DebugContext(ctx, "Processing update")
			next(ctx, b, update)
			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

// UpdateLogger returns log annotated with the identifying fields of update.
func UpdateLogger(log *slog.Logger, update *models.Update) *slog.Logger {
	logEntry := log.With("update_id", update.ID)

	switch {
	case update.Message != nil:
		logEntry = logEntry.With(
			"update_type", "message",
			"message_id", update.Message.ID,
			"chat_id", update.Message.Chat.ID,
			"text_preview", Preview(update.Message.Text, 50),
		)
		if update.Message.From != nil {
			logEntry = logEntry.With("user_id", update.Message.From.ID)
		}

	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		logEntry = logEntry.With(
			"update_type", "callback_query",
			"callback_query_id", cq.ID,
			"user_id", cq.From.ID,
			"data", cq.Data,
		)
		switch {
		case cq.Message.Message != nil:
			logEntry = logEntry.With("chat_id", cq.Message.Message.Chat.ID, "message_accessible", true)
		case cq.Message.InaccessibleMessage != nil:
			logEntry = logEntry.With("chat_id", cq.Message.InaccessibleMessage.Chat.ID, "message_accessible", false)
		}

	default:
		logEntry = logEntry.With("update_type", "other")
	}
	return logEntry
}

// Preview shortens s to at most maxLen bytes, marking the cut with "...".
func Preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
