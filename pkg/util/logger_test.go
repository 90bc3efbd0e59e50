package util

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	lvl, ok := parseLevel(" WARN ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, ok = parseLevel("loud")
	assert.False(t, ok)
}

func TestNewLogger_Levels(t *testing.T) {
	ctx := context.Background()

	dev := NewLogger("development", "")
	assert.True(t, dev.Enabled(ctx, slog.LevelDebug))

	prod := NewLogger("production", "")
	assert.False(t, prod.Enabled(ctx, slog.LevelDebug))
	assert.True(t, prod.Enabled(ctx, slog.LevelInfo))

	quiet := NewLogger("development", "error")
	assert.False(t, quiet.Enabled(ctx, slog.LevelWarn))
}
