package telegram

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/dayplanbot/internal/chat"
)

// maxMessageLength is Telegram's limit for message text.
const maxMessageLength = 4096

var inlineCode = regexp.MustCompile("`([^`\n]+)`")

// escape HTML-escapes s and turns `code` spans into <code> tags.
func escape(s string) string {
	return inlineCode.ReplaceAllString(html.EscapeString(s), "<code>$1</code>")
}

// part is one block of a rendered card. open and close are finished HTML,
// text is plain and escaped when rendered.
type part struct {
	open, text, close string
}

func (p part) render() string {
	return p.open + escape(p.text) + p.close
}

// renderCard converts a card to HTML message text and an inline keyboard.
// The keyboard is nil when the card has no buttons. A card over the message
// limit is cut inside the plain text of the first block that does not fit, so
// tags and entities stay whole.
func renderCard(card chat.Card) (string, models.ReplyMarkup) {
	var parts []part
	if card.ThumbnailURL != "" {
		// An invisible link makes Telegram preview the image.
		parts = append(parts, part{open: `<a href="` + html.EscapeString(card.ThumbnailURL) + `">&#8203;</a>`})
	}
	if card.Content != "" {
		parts = append(parts, part{text: card.Content})
	}

	switch {
	case card.Title != "" && card.Description != "":
		parts = append(parts, part{open: "<b>" + escape(card.Title) + "</b>\n", text: card.Description})
	case card.Title != "":
		parts = append(parts, part{open: "<b>" + escape(card.Title) + "</b>"})
	case card.Description != "":
		parts = append(parts, part{text: card.Description})
	}

	for _, f := range card.Fields {
		parts = append(parts, part{open: "<b>" + escape(f.Name) + "</b>\n", text: f.Value})
	}
	if card.Footer != "" {
		parts = append(parts, part{open: "<i>", text: card.Footer, close: "</i>"})
	}

	return joinParts(parts, maxMessageLength), keyboard(card.Buttons)
}

// joinParts joins the rendered parts with blank lines, keeping the result
// within limit runes.
func joinParts(parts []part, limit int) string {
	const sep = "\n\n"

	var b strings.Builder
	remaining := limit
	for i, p := range parts {
		gap := 0
		if i > 0 {
			gap = len(sep)
		}

		rendered := p.render()
		if need := utf8.RuneCountInString(rendered) + gap; need <= remaining {
			if gap > 0 {
				b.WriteString(sep)
			}
			b.WriteString(rendered)
			remaining -= need
			continue
		}

		budget := remaining - gap - utf8.RuneCountInString(p.open) - utf8.RuneCountInString(p.close)
		if p.text != "" && budget > 1 {
			if gap > 0 {
				b.WriteString(sep)
			}
			b.WriteString(p.open + fitEscaped(p.text, budget) + p.close)
		}
		break
	}
	return b.String()
}

// fitEscaped returns the longest escaped prefix of s followed by an ellipsis
// that is at most budget runes long.
func fitEscaped(s string, budget int) string {
	r := []rune(s)
	n := sort.Search(len(r)+1, func(k int) bool {
		return utf8.RuneCountInString(escape(string(r[:k])))+1 > budget
	}) - 1
	if n < 0 {
		n = 0
	}
	return escape(string(r[:n])) + "…"
}

func keyboard(rows [][]chat.Button) models.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         styleMark(b.Style) + b.Label,
				CallbackData: b.Data,
			})
		}
		kb = append(kb, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: kb}
}

// styleMark prefixes a label since Telegram buttons have no colors.
func styleMark(s chat.ButtonStyle) string {
	switch s {
	case chat.ButtonSuccess:
		return "✅ "
	case chat.ButtonDanger:
		return "❌ "
	default:
		return ""
	}
}

// truncate cuts plain text s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
