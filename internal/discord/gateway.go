package discord

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/edgard/dayplanbot/internal/chat"
)

// Sender is the part of the Discord session used to post messages.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Gateway implements chat.Gateway on top of a Discord session.
type Gateway struct {
	sender Sender
	logger *slog.Logger
}

// NewGateway creates a Gateway posting through sender, usually a *discordgo.Session.
func NewGateway(sender Sender, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gateway{sender: sender, logger: logger.With("component", "discord_gateway")}
}

// SendCard implements chat.Gateway.
func (g *Gateway) SendCard(ctx context.Context, channelID string, card chat.Card) error {
	if _, err := g.sender.ChannelMessageSendComplex(channelID, renderCard(card), discordgo.WithContext(ctx)); err != nil {
		g.logger.ErrorContext(ctx, "Failed to send card", "channel_id", channelID, "title", card.Title, "error", err)
		return fmt.Errorf("failed to send card to %s: %w", channelID, err)
	}
	return nil
}

// SendText implements chat.Gateway.
func (g *Gateway) SendText(ctx context.Context, channelID, text string) error {
	if _, err := g.sender.ChannelMessageSend(channelID, truncate(text, maxContent), discordgo.WithContext(ctx)); err != nil {
		g.logger.ErrorContext(ctx, "Failed to send message", "channel_id", channelID, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return nil
}

// messageFromEvent extracts a message written by a person other than the bot.
func messageFromEvent(botID string, m *discordgo.MessageCreate) (chat.Message, bool) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot || m.Author.ID == botID {
		return chat.Message{}, false
	}
	if m.Content == "" {
		return chat.Message{}, false
	}
	return chat.Message{ChannelID: m.ChannelID, AuthorID: m.Author.ID, Content: m.Content}, true
}

// interactionFromEvent extracts a button press.
func interactionFromEvent(i *discordgo.InteractionCreate) (chat.Interaction, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return chat.Interaction{}, false
	}
	in := chat.Interaction{
		ChannelID: i.ChannelID,
		Data:      i.MessageComponentData().CustomID,
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		in.UserID = i.Member.User.ID
	case i.User != nil:
		in.UserID = i.User.ID
	}
	return in, in.Data != ""
}
