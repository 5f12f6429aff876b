// Package chat defines the platform-neutral message types shared by the bot core
// and the Telegram and Discord gateways.
package chat

import "context"

// Color is an RGB value used to tint a card where the platform supports it.
type Color int

// Card colors.
const (
	ColorBlue   Color = 0x3498db
	ColorGreen  Color = 0x2ecc71
	ColorRed    Color = 0xe74c3c
	ColorGold   Color = 0xf1c40f
	ColorPurple Color = 0x9b59b6
	ColorPink   Color = 0xe91e63
	ColorTeal   Color = 0x48c9b0
)

// ButtonStyle selects the visual style of an interactive button.
type ButtonStyle int

// Button styles.
const (
	ButtonPrimary ButtonStyle = iota
	ButtonSuccess
	ButtonDanger
)

// Button is an interactive button attached to a card. Data is delivered back
// verbatim in the Interaction produced when a user presses it.
type Button struct {
	Label string
	Style ButtonStyle
	Data  string
}

// Field is a named section of a card.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Card is a formatted outbound message.
type Card struct {
	// Content is plain text sent together with the card, e.g. a mention.
	Content      string
	Title        string
	Description  string
	Color        Color
	Fields       []Field
	Footer       string
	ThumbnailURL string
	// Buttons holds rows of buttons, rendered top to bottom.
	Buttons [][]Button
}

// AddField appends a field to the card.
func (c *Card) AddField(name, value string, inline bool) {
	c.Fields = append(c.Fields, Field{Name: name, Value: value, Inline: inline})
}

// Message is an inbound text message.
type Message struct {
	ChannelID string
	AuthorID  string
	Content   string
}

// Interaction is produced when a user presses a button.
type Interaction struct {
	ChannelID string
	UserID    string
	Data      string
}

// Gateway sends messages to a channel of the underlying messaging platform.
type Gateway interface {
	// SendCard posts a formatted card, with its buttons if any.
	SendCard(ctx context.Context, channelID string, card Card) error
	// SendText posts plain text.
	SendText(ctx context.Context, channelID, text string) error
}

// Handler consumes inbound events. Gateways call it from their own
// goroutines; gw replies on the platform the event came from.
type Handler interface {
	HandleMessage(ctx context.Context, gw Gateway, msg Message)
	HandleInteraction(ctx context.Context, gw Gateway, in Interaction)
}
