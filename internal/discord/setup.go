// Package discord connects the bot to Discord: it renders cards as embeds
// with button rows and feeds messages and button presses into a chat.Handler.
package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/edgard/dayplanbot/internal/chat"
	"github.com/edgard/dayplanbot/internal/resilience"
)

const intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

// Bot is a connected Discord bot.
type Bot struct {
	session *discordgo.Session
	gw      *Gateway
	logger  *slog.Logger
	// ctx is the base context of event handlers, which discordgo calls
	// without one.
	ctx context.Context
}

// NewDiscordBot opens the gateway session, retrying with backoff, and
// registers the message and interaction handlers.
func NewDiscordBot(ctx context.Context, token string, retry resilience.RetryConfig, h chat.Handler, log *slog.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord bot token cannot be empty")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("component", "discord_bot")
	retry.Logger = log

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = intents

	b := &Bot{session: session, gw: NewGateway(session, log), logger: log, ctx: ctx}
	b.registerHandlers(h)

	if err := resilience.Retry(ctx, "discord_connect", retry, func(context.Context) error {
		return session.Open()
	}); err != nil {
		return nil, fmt.Errorf("failed to open discord session: %w", err)
	}
	log.InfoContext(ctx, "Discord bot connected", "bot_id", b.botID(), "bot_username", b.username())
	return b, nil
}

// Gateway returns the gateway posting through this bot.
func (b *Bot) Gateway() *Gateway { return b.gw }

func (b *Bot) botID() string {
	if b.session.State == nil || b.session.State.User == nil {
		return ""
	}
	return b.session.State.User.ID
}

func (b *Bot) username() string {
	if b.session.State == nil || b.session.State.User == nil {
		return ""
	}
	return b.session.State.User.Username
}

func (b *Bot) registerHandlers(h chat.Handler) {
	b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		msg, ok := messageFromEvent(b.botID(), m)
		if !ok {
			return
		}
		start := time.Now()
		h.HandleMessage(b.ctx, b.gw, msg)
		b.logger.DebugContext(b.ctx, "Message event handled",
			"channel_id", msg.ChannelID,
			"user_id", msg.AuthorID,
			"duration_ms", time.Since(start).Milliseconds())
	})

	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		in, ok := interactionFromEvent(i)
		if !ok {
			return
		}
		// Acknowledge within Discord's three second window; replies follow
		// as regular channel messages.
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			b.logger.WarnContext(b.ctx, "Failed to acknowledge interaction", "error", err)
		}
		start := time.Now()
		h.HandleInteraction(b.ctx, b.gw, in)
		b.logger.DebugContext(b.ctx, "Interaction event handled",
			"channel_id", in.ChannelID,
			"user_id", in.UserID,
			"duration_ms", time.Since(start).Milliseconds())
	})

	b.logger.Info("Registered Discord handlers")
}

// Run keeps the session open until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.InfoContext(ctx, "Discord bot listening")
	<-ctx.Done()
	b.logger.InfoContext(ctx, "Closing Discord session")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}
