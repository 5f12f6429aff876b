// Package bot wires the chat platform listener and the task scheduler
// together and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Runner is a chat platform listener. Run blocks until ctx is cancelled or
// the listener fails.
type Runner interface {
	Run(ctx context.Context) error
}

// Lifecycle is a component started once and stopped on shutdown.
type Lifecycle interface {
	Start() error
	Stop() error
}

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	listener  Runner
	scheduler Lifecycle
}

// NewBot creates the orchestrator over a platform listener and a scheduler.
func NewBot(logger *slog.Logger, listener Runner, scheduler Lifecycle) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		listener:  listener,
		scheduler: scheduler,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on context cancellation.
// It returns an error if any component fails during startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting chat listener...")
		if err := b.listener.Run(gCtx); err != nil {
			b.logger.Error("Chat listener failed", "error", err)
			return fmt.Errorf("chat listener failed: %w", err)
		}
		b.logger.Info("Chat listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Chat listener stopped unexpectedly without context cancellation.")
			return errors.New("chat listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
