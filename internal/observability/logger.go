package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON to stdout, debug level in dev,
// with trace/span ids attached to records carrying an active span.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(handler))
}
