package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dayplanbot/internal/chat"
)

func TestRenderCard(t *testing.T) {
	t.Parallel()

	card := chat.Card{
		Content:     "<@1>, it's time!",
		Title:       "📋 Task List",
		Description: "Use `!add` to add <tasks> & more",
		Footer:      "Day 1/3",
	}
	card.AddField("Tasks", "1. ❌ Read", false)
	card.Buttons = [][]chat.Button{{
		{Label: "Yes", Style: chat.ButtonSuccess, Data: "tt:p1:yes"},
		{Label: "No", Style: chat.ButtonDanger, Data: "tt:p1:no"},
	}, {
		{Label: "Done", Style: chat.ButtonPrimary, Data: "tt:p2:done"},
	}}

	text, markup := renderCard(card)
	assert.Equal(t, "&lt;@1&gt;, it&#39;s time!\n\n"+
		"<b>📋 Task List</b>\nUse <code>!add</code> to add &lt;tasks&gt; &amp; more\n\n"+
		"<b>Tasks</b>\n1. ❌ Read\n\n"+
		"<i>Day 1/3</i>", text)

	kb, ok := markup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, models.InlineKeyboardButton{Text: "✅ Yes", CallbackData: "tt:p1:yes"}, kb.InlineKeyboard[0][0])
	assert.Equal(t, models.InlineKeyboardButton{Text: "❌ No", CallbackData: "tt:p1:no"}, kb.InlineKeyboard[0][1])
	assert.Equal(t, models.InlineKeyboardButton{Text: "Done", CallbackData: "tt:p2:done"}, kb.InlineKeyboard[1][0])
}

func TestRenderCardWithoutButtons(t *testing.T) {
	t.Parallel()

	text, markup := renderCard(chat.Card{Title: "Hi", ThumbnailURL: "https://img/a.jpg?x=1&y=2"})
	assert.Nil(t, markup)
	assert.Equal(t, "<a href=\"https://img/a.jpg?x=1&amp;y=2\">&#8203;</a>\n\n<b>Hi</b>", text)
}

func TestRenderCardTruncates(t *testing.T) {
	t.Parallel()

	text, _ := renderCard(chat.Card{Description: strings.Repeat("é", maxMessageLength+10)})
	assert.Equal(t, maxMessageLength, len([]rune(text)))
	assert.True(t, strings.HasSuffix(text, "…"))
}

func TestRenderCardTruncatesWholeMarkup(t *testing.T) {
	t.Parallel()

	card := chat.Card{Title: "📋 Task List", Footer: "Day 1/5"}
	for i := range 40 {
		card.AddField(fmt.Sprintf("Task %d", i), strings.Repeat("Tom & `Jerry` ", 10), false)
	}

	text, _ := renderCard(card)
	require.LessOrEqual(t, utf8.RuneCountInString(text), maxMessageLength)
	assert.True(t, strings.HasSuffix(text, "…"))
	assert.Equal(t, strings.Count(text, "<b>"), strings.Count(text, "</b>"))
	assert.Equal(t, strings.Count(text, "<code>"), strings.Count(text, "</code>"))
	assert.Equal(t, strings.Count(text, "&"), strings.Count(text, "&amp;"), "entities are never split")
	assert.NotContains(t, text, "<i>", "footer does not fit")
}

func TestFitEscaped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		budget int
		want   string
	}{
		{"entity not split", "a&b", 6, "a…"},
		{"entity kept", "a&b", 7, "a&amp;…"},
		{"code span not split", "x `yz`", 12, "x `yz…"},
		{"nothing fits", "&&", 2, "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := fitEscaped(tt.in, tt.budget)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.budget)
		})
	}
}

type fakeSender struct {
	params []*bot.SendMessageParams
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.params = append(f.params, p)
	return &models.Message{}, f.err
}

func TestGatewaySend(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	gw := NewGateway(s, nil)
	ctx := context.Background()

	require.NoError(t, gw.SendCard(ctx, "-100123", chat.Card{Title: "T"}))
	require.NoError(t, gw.SendText(ctx, "@news", "hello"))

	require.Len(t, s.params, 2)
	assert.Equal(t, int64(-100123), s.params[0].ChatID)
	assert.Equal(t, models.ParseModeHTML, s.params[0].ParseMode)
	assert.Nil(t, s.params[0].ReplyMarkup)
	assert.Equal(t, "@news", s.params[1].ChatID)
	assert.Equal(t, "hello", s.params[1].Text)

	s.err = errors.New("forbidden")
	assert.Error(t, gw.SendText(ctx, "1", "x"))
}

func TestMessageFromUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		update *models.Update
		want   chat.Message
		wantOK bool
	}{
		{
			name: "user text",
			update: &models.Update{Message: &models.Message{
				Chat: models.Chat{ID: -42},
				From: &models.User{ID: 7},
				Text: "/list",
			}},
			want:   chat.Message{ChannelID: "-42", AuthorID: "7", Content: "/list"},
			wantOK: true,
		},
		{
			name: "bot author",
			update: &models.Update{Message: &models.Message{
				Chat: models.Chat{ID: 1}, From: &models.User{ID: 2, IsBot: true}, Text: "hi",
			}},
		},
		{name: "no sender", update: &models.Update{Message: &models.Message{Chat: models.Chat{ID: 1}, Text: "hi"}}},
		{name: "no message", update: &models.Update{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := messageFromUpdate(tt.update)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInteractionFromUpdate(t *testing.T) {
	t.Parallel()

	in, ok := interactionFromUpdate(&models.Update{CallbackQuery: &models.CallbackQuery{
		ID:      "q1",
		From:    models.User{ID: 7},
		Data:    "tt:p1:yes",
		Message: models.MaybeInaccessibleMessage{Message: &models.Message{Chat: models.Chat{ID: -42}}},
	}})
	require.True(t, ok)
	assert.Equal(t, chat.Interaction{ChannelID: "-42", UserID: "7", Data: "tt:p1:yes"}, in)

	in, ok = interactionFromUpdate(&models.Update{CallbackQuery: &models.CallbackQuery{
		From:    models.User{ID: 7},
		Data:    "tt:p1:no",
		Message: models.MaybeInaccessibleMessage{InaccessibleMessage: &models.InaccessibleMessage{Chat: models.Chat{ID: 5}}},
	}})
	require.True(t, ok)
	assert.Equal(t, "5", in.ChannelID)

	_, ok = interactionFromUpdate(&models.Update{})
	assert.False(t, ok)
}
