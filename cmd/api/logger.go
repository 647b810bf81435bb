package api

import (
	"io"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/expense-tracker/pkg/config"
)

// NewLogger returns a JSON logger at the configured level, tagged with the
// service name.
func NewLogger(w io.Writer, cfg config.ObservabilityConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", cfg.ServiceName))
}
