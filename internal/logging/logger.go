// Package logging builds the process-wide structured logger. The engine,
// the HTTP layer, and the ingest CLI all derive component loggers from it
// via With.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/aruiz/crossedpaths/backend/internal/config"
)

// New builds a slog.Logger honoring the configured level, format, and
// caller annotation.
func New(cfg config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.IncludeCaller,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
