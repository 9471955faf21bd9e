package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig configures the process logger.
type LogConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error".
	Level string

	// Format selects the handler: "json" for machine-readable output,
	// "text" for terminals. Defaults to "text".
	Format string

	// Output is the log destination. Defaults to os.Stderr so command
	// output on stdout stays parseable.
	Output io.Writer

	// AddSource includes the file and line of the log call site.
	AddSource bool
}

// NewLogger builds a leveled slog.Logger from config. Unrecognized
// levels fall back to info rather than failing startup.
func NewLogger(config LogConfig) *slog.Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DiscardLogger returns a logger that drops every record. Libraries use
// it as the default so callers opt in to output explicitly.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
