// Package handlers contains the chat command handlers, their registration
// logic and middleware, and the Router that feeds gateway events into them.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/dayplanbot/internal/chat"
)

// WithLogging logs every command with its duration and outcome.
func WithLogging(log *slog.Logger) Middleware {
	return func(next CommandFunc) CommandFunc {
		return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
			start := time.Now()
			err := next(ctx, gw, cmd)
			attrs := []any{
				"command", cmd.Name,
				"channel_id", cmd.Message.ChannelID,
				"user_id", cmd.Message.AuthorID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				log.WarnContext(ctx, "Command failed", append(attrs, "error", err)...)
			} else {
				log.InfoContext(ctx, "Command handled", attrs...)
			}
			return err
		}
	}
}

// WithRecover turns a panicking handler into an error.
func WithRecover() Middleware {
	return func(next CommandFunc) CommandFunc {
		return func(ctx context.Context, gw chat.Gateway, cmd Command) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic in %s handler: %v", cmd.Name, r)
				}
			}()
			return next(ctx, gw, cmd)
		}
	}
}

// WithTimeout bounds the handler's context.
func WithTimeout(d time.Duration) Middleware {
	return func(next CommandFunc) CommandFunc {
		return func(ctx context.Context, gw chat.Gateway, cmd Command) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, gw, cmd)
		}
	}
}

// chain applies mws so that the first one runs outermost.
func chain(h CommandFunc, mws ...Middleware) CommandFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
