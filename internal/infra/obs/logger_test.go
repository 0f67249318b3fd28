package obs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()

	assert.True(t, NewLogger("dev").Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewLogger("local").Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("prod").Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewLogger("prod").Enabled(ctx, slog.LevelInfo))
}
