// Package telegram connects the bot to Telegram: it renders cards as HTML
// messages with inline keyboards and feeds text messages and button presses
// into a chat.Handler.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/dayplanbot/internal/bot/handlers"
	"github.com/edgard/dayplanbot/internal/chat"
	"github.com/edgard/dayplanbot/internal/logger"
	"github.com/edgard/dayplanbot/internal/resilience"
)

// Bot is a connected Telegram bot.
type Bot struct {
	api    *bot.Bot
	gw     *Gateway
	me     *models.User
	logger *slog.Logger
}

// NewTelegramBot connects to Telegram, retrying with backoff, and registers
// the message and button handlers.
func NewTelegramBot(ctx context.Context, token string, retry resilience.RetryConfig, h chat.Handler, log *slog.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("component", "telegram_bot")
	retry.Logger = log

	var api *bot.Bot
	err := resilience.Retry(ctx, "telegram_connect", retry, func(context.Context) error {
		var err error
		api, err = bot.New(token, bot.WithMiddlewares(logger.Middleware(log)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	var me *models.User
	if err := resilience.Retry(ctx, "telegram_get_me", retry, func(ctx context.Context) error {
		var err error
		me, err = api.GetMe(ctx)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	log.InfoContext(ctx, "Telegram bot connected", "bot_id", me.ID, "bot_username", me.Username)

	b := &Bot{api: api, gw: NewGateway(api, log), me: me, logger: log}
	b.registerHandlers(h)
	return b, nil
}

// Gateway returns the gateway posting through this bot.
func (b *Bot) Gateway() *Gateway { return b.gw }

// Username returns the bot's username.
func (b *Bot) Username() string { return b.me.Username }

func (b *Bot) registerHandlers(h chat.Handler) {
	b.api.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix,
		func(ctx context.Context, _ *bot.Bot, update *models.Update) {
			if msg, ok := messageFromUpdate(update); ok {
				h.HandleMessage(ctx, b.gw, msg)
			}
		})

	b.api.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix,
		func(ctx context.Context, api *bot.Bot, update *models.Update) {
			in, ok := interactionFromUpdate(update)
			if !ok {
				return
			}
			// Stop the client's loading indicator before doing any work.
			if _, err := api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
				CallbackQueryID: update.CallbackQuery.ID,
			}); err != nil {
				b.logger.WarnContext(ctx, "Failed to answer callback query", "error", err)
			}
			h.HandleInteraction(ctx, b.gw, in)
		})

	b.logger.Info("Registered Telegram handlers")
}

// SetCommands publishes the command menu.
func (b *Bot) SetCommands(ctx context.Context, commands []handlers.CommandInfo) error {
	list := make([]models.BotCommand, 0, len(commands))
	for _, c := range commands {
		list = append(list, models.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := b.api.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: list}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	b.logger.InfoContext(ctx, "Bot commands published", "count", len(list))
	return nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.InfoContext(ctx, "Starting Telegram bot listener")
	b.api.Start(ctx)
	b.logger.InfoContext(ctx, "Telegram bot listener stopped")
	if ctx.Err() == nil {
		return errors.New("telegram listener stopped unexpectedly")
	}
	return nil
}
