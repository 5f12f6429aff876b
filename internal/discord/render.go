package discord

import (
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/edgard/dayplanbot/internal/chat"
)

// Discord embed limits.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFields      = 25
	maxFooter      = 2048
	maxContent     = 2000
	maxRowButtons  = 5
	maxRows        = 5
)

// renderCard converts a card to a message with one embed and its button rows.
func renderCard(card chat.Card) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       truncate(card.Title, maxTitle),
		Description: truncate(card.Description, maxDescription),
		Color:       int(card.Color),
	}
	for i, f := range card.Fields {
		if i == maxFields {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   nonEmpty(truncate(f.Name, maxFieldName)),
			Value:  nonEmpty(truncate(f.Value, maxFieldValue)),
			Inline: f.Inline,
		})
	}
	if card.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: truncate(card.Footer, maxFooter)}
	}
	if card.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: card.ThumbnailURL}
	}

	return &discordgo.MessageSend{
		Content:    truncate(card.Content, maxContent),
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components(card.Buttons),
	}
}

func components(rows [][]chat.Button) []discordgo.MessageComponent {
	var out []discordgo.MessageComponent
	for i, row := range rows {
		if i == maxRows {
			break
		}
		var buttons []discordgo.MessageComponent
		for j, b := range row {
			if j == maxRowButtons {
				break
			}
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyle(b.Style),
				CustomID: b.Data,
			})
		}
		if len(buttons) > 0 {
			out = append(out, discordgo.ActionsRow{Components: buttons})
		}
	}
	return out
}

func buttonStyle(s chat.ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case chat.ButtonSuccess:
		return discordgo.SuccessButton
	case chat.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

// nonEmpty replaces an empty string, which Discord rejects in fields, with a
// zero-width space.
func nonEmpty(s string) string {
	if s == "" {
		return "\u200b"
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
