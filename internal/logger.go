package internal

import (
	"io"
	"log/slog"
	"strings"
)

// parseLevel maps LOG_LEVEL onto slog levels. slog accepts offsets such as
// "warn+2"; anything it cannot parse logs at info.
func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger builds the service logger. Development gets readable text
// output with source locations; every other environment logs JSON.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if env == "development" {
		opts.AddSource = true
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With("service", "finanzas-api", "env", env)
}
