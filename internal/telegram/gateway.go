package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/dayplanbot/internal/chat"
)

// Sender is the part of the Telegram client used to post messages.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Gateway implements chat.Gateway on top of the Telegram Bot API.
type Gateway struct {
	sender Sender
	logger *slog.Logger
}

// NewGateway creates a Gateway posting through sender, usually a *bot.Bot.
func NewGateway(sender Sender, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gateway{sender: sender, logger: logger.With("component", "telegram_gateway")}
}

// chatID converts a channel id back to the numeric chat id Telegram issued.
// Anything else, such as "@channelname", is passed through.
func chatID(channelID string) any {
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		return id
	}
	return channelID
}

// SendCard implements chat.Gateway.
func (g *Gateway) SendCard(ctx context.Context, channelID string, card chat.Card) error {
	text, markup := renderCard(card)
	params := &bot.SendMessageParams{
		ChatID:    chatID(channelID),
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := g.sender.SendMessage(ctx, params); err != nil {
		g.logger.ErrorContext(ctx, "Failed to send card", "chat_id", channelID, "title", card.Title, "error", err)
		return fmt.Errorf("failed to send card to %s: %w", channelID, err)
	}
	return nil
}

// SendText implements chat.Gateway.
func (g *Gateway) SendText(ctx context.Context, channelID, text string) error {
	if _, err := g.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(channelID),
		Text:   truncate(text, maxMessageLength),
	}); err != nil {
		g.logger.ErrorContext(ctx, "Failed to send message", "chat_id", channelID, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return nil
}

// messageFromUpdate extracts a text message sent by a person.
func messageFromUpdate(update *models.Update) (chat.Message, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.From.IsBot || m.Text == "" {
		return chat.Message{}, false
	}
	return chat.Message{
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		AuthorID:  strconv.FormatInt(m.From.ID, 10),
		Content:   m.Text,
	}, true
}

// interactionFromUpdate extracts a button press. The channel is empty when
// Telegram no longer shares the message the button was attached to.
func interactionFromUpdate(update *models.Update) (chat.Interaction, bool) {
	cq := update.CallbackQuery
	if cq == nil || cq.Data == "" {
		return chat.Interaction{}, false
	}
	in := chat.Interaction{
		UserID: strconv.FormatInt(cq.From.ID, 10),
		Data:   cq.Data,
	}
	switch {
	case cq.Message.Message != nil:
		in.ChannelID = strconv.FormatInt(cq.Message.Message.Chat.ID, 10)
	case cq.Message.InaccessibleMessage != nil:
		in.ChannelID = strconv.FormatInt(cq.Message.InaccessibleMessage.Chat.ID, 10)
	}
	return in, true
}
