package discord

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dayplanbot/internal/chat"
)

func TestRenderCard(t *testing.T) {
	t.Parallel()

	card := chat.Card{
		Content:      "<@1>, it's time for prayer!",
		Title:        "🌅 Fajr Time 🌅",
		Description:  "Prayer Time: 05:00",
		Color:        chat.ColorTeal,
		Footer:       "Date: 01-05-2024",
		ThumbnailURL: "https://img/a.jpg",
	}
	card.AddField("Desi (@ourdesiree)", "Points: 3", true)
	card.AddField("", "", false)
	card.Buttons = [][]chat.Button{{
		{Label: "Yes", Style: chat.ButtonSuccess, Data: "tt:p1:yes"},
		{Label: "No", Style: chat.ButtonDanger, Data: "tt:p1:no"},
		{Label: "Done", Style: chat.ButtonPrimary, Data: "tt:p1:done"},
	}}

	msg := renderCard(card)
	assert.Equal(t, card.Content, msg.Content)
	require.Len(t, msg.Embeds, 1)
	e := msg.Embeds[0]
	assert.Equal(t, card.Title, e.Title)
	assert.Equal(t, card.Description, e.Description)
	assert.Equal(t, 0x48c9b0, e.Color)
	assert.Equal(t, "Date: 01-05-2024", e.Footer.Text)
	assert.Equal(t, "https://img/a.jpg", e.Thumbnail.URL)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, &discordgo.MessageEmbedField{Name: "Desi (@ourdesiree)", Value: "Points: 3", Inline: true}, e.Fields[0])
	assert.Equal(t, "\u200b", e.Fields[1].Name)

	require.Len(t, msg.Components, 1)
	row, ok := msg.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 3)
	assert.Equal(t, discordgo.Button{Label: "Yes", Style: discordgo.SuccessButton, CustomID: "tt:p1:yes"}, row.Components[0])
	assert.Equal(t, discordgo.Button{Label: "No", Style: discordgo.DangerButton, CustomID: "tt:p1:no"}, row.Components[1])
	assert.Equal(t, discordgo.Button{Label: "Done", Style: discordgo.PrimaryButton, CustomID: "tt:p1:done"}, row.Components[2])
}

func TestRenderCardLimits(t *testing.T) {
	t.Parallel()

	card := chat.Card{Title: strings.Repeat("t", 300)}
	for range 30 {
		card.AddField("f", strings.Repeat("v", 2000), false)
	}

	msg := renderCard(card)
	e := msg.Embeds[0]
	assert.Len(t, []rune(e.Title), maxTitle)
	assert.Len(t, e.Fields, maxFields)
	assert.Len(t, []rune(e.Fields[0].Value), maxFieldValue)
	assert.Nil(t, e.Footer)
	assert.Nil(t, e.Thumbnail)
	assert.Empty(t, msg.Components)
}

type fakeSender struct {
	complex []*discordgo.MessageSend
	texts   []string
	err     error
}

func (f *fakeSender) ChannelMessageSendComplex(_ string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.complex = append(f.complex, data)
	return &discordgo.Message{}, f.err
}

func (f *fakeSender) ChannelMessageSend(_ string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.texts = append(f.texts, content)
	return &discordgo.Message{}, f.err
}

func TestGatewaySend(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	gw := NewGateway(s, nil)
	ctx := context.Background()

	require.NoError(t, gw.SendCard(ctx, "c1", chat.Card{Title: "T"}))
	require.NoError(t, gw.SendText(ctx, "c1", "hello"))
	assert.Len(t, s.complex, 1)
	assert.Equal(t, []string{"hello"}, s.texts)

	s.err = errors.New("missing access")
	assert.Error(t, gw.SendCard(ctx, "c1", chat.Card{}))
}

func TestMessageFromEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  *discordgo.MessageCreate
		want   chat.Message
		wantOK bool
	}{
		{
			name: "user message",
			event: &discordgo.MessageCreate{Message: &discordgo.Message{
				ChannelID: "c1", Content: "!list", Author: &discordgo.User{ID: "u1"},
			}},
			want:   chat.Message{ChannelID: "c1", AuthorID: "u1", Content: "!list"},
			wantOK: true,
		},
		{
			name: "own message",
			event: &discordgo.MessageCreate{Message: &discordgo.Message{
				ChannelID: "c1", Content: "hi", Author: &discordgo.User{ID: "bot"},
			}},
		},
		{
			name: "other bot",
			event: &discordgo.MessageCreate{Message: &discordgo.Message{
				ChannelID: "c1", Content: "hi", Author: &discordgo.User{ID: "b2", Bot: true},
			}},
		},
		{
			name: "embed only",
			event: &discordgo.MessageCreate{Message: &discordgo.Message{
				ChannelID: "c1", Author: &discordgo.User{ID: "u1"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := messageFromEvent("bot", tt.event)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInteractionFromEvent(t *testing.T) {
	t.Parallel()

	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "c1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data:      discordgo.MessageComponentInteractionData{CustomID: "tt:p1:yes"},
	}}
	in, ok := interactionFromEvent(guild)
	require.True(t, ok)
	assert.Equal(t, chat.Interaction{ChannelID: "c1", UserID: "u1", Data: "tt:p1:yes"}, in)

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "d1",
		User:      &discordgo.User{ID: "u2"},
		Data:      discordgo.MessageComponentInteractionData{CustomID: "tt:p1:no"},
	}}
	in, ok = interactionFromEvent(dm)
	require.True(t, ok)
	assert.Equal(t, "u2", in.UserID)

	slash := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionApplicationCommand}}
	_, ok = interactionFromEvent(slash)
	assert.False(t, ok)
}
