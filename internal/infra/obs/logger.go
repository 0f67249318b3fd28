package obs

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

const serviceName = "stayaway"

// NewLogger configures the process logger: colorful debug-level output in
// dev, JSON at info level for production-like envs. Every record carries
// the service name so aggregated logs stay attributable.
func NewLogger(env string) *slog.Logger {
	writer := os.Stdout
	var handler slog.Handler
	if env == "dev" || env == "local" {
		handler = tint.NewHandler(writer, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		})
	} else {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		})
	}
	return slog.New(handler).With("service", serviceName)
}
