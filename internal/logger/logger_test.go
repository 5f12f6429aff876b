package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dayplanbot/internal/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestNewJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(&buf, "warn", true)

	log.Info("dropped")
	log.Warn("kept", "channel_id", "c1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "c1", record["channel_id"])
}

func TestUpdateLogger(t *testing.T) {
	t.Parallel()

	t.Run("message", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		update := &models.Update{
			ID: 7,
			Message: &models.Message{
				ID:   3,
				Chat: models.Chat{ID: -100},
				From: &models.User{ID: 42},
				Text: "/add buy milk",
			},
		}
		logger.UpdateLogger(logger.New(&buf, "info", false), update).Info("x")

		out := buf.String()
		assert.Contains(t, out, "update_type=message")
		assert.Contains(t, out, "chat_id=-100")
		assert.Contains(t, out, "user_id=42")
	})

	t.Run("callback without message", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		update := &models.Update{
			ID: 8,
			CallbackQuery: &models.CallbackQuery{
				ID:   "q1",
				From: models.User{ID: 5},
				Data: "tt:abc:yes",
			},
		}
		logger.UpdateLogger(logger.New(&buf, "info", false), update).Info("x")

		out := buf.String()
		assert.Contains(t, out, "update_type=callback_query")
		assert.NotContains(t, out, "chat_id")
	})
}

func TestPreview(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", logger.Preview("short", 10))
	assert.Equal(t, "abcdefg...", logger.Preview("abcdefghijklmnop", 10))
	assert.Equal(t, "...", logger.Preview("abcdef", 2))
}
