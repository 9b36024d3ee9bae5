package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	t.Run("json_handler", func(t *testing.T) {
		InitLogger("info", "json")
		assert.NotNil(t, logger)
	})

	t.Run("text_handler", func(t *testing.T) {
		InitLogger("info", "text")
		assert.NotNil(t, logger)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestFromContext(t *testing.T) {
	InitLogger("info", "json")

	t.Run("bare_context", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("with_request_and_room", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithRoomID(ctx, "lobby")
		assert.NotNil(t, FromContext(ctx))
	})
}
