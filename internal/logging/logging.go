// Package logging provides bookmind's structured logger, built on [log/slog].
// It is configured once at startup via [New] and distributed through context
// values using [WithLogger] / [FromContext].
//
// Environment variables (BOOKMIND_-prefixed so a shell running other tools
// alongside bookmind doesn't leak their LOG_* settings into it):
//
//	BOOKMIND_LOG_LEVEL  = debug | info | warn | error  (default: info)
//	BOOKMIND_LOG_FORMAT = json | text                  (default: json)
//
// JSON output carries a constant service=bookmind attribute so aggregated
// logs from a host running several services stay filterable. Text output is
// for a human at a terminal and stays unadorned.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// contextKey is an unexported type for context keys in this package.
type contextKey struct{}

// New constructs a [*slog.Logger] writing to stderr, configured from
// BOOKMIND_LOG_LEVEL and BOOKMIND_LOG_FORMAT.
func New() *slog.Logger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput is [New] writing to w instead of stderr. Tests use it to
// capture output.
func NewWithOutput(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("BOOKMIND_LOG_LEVEL"))}

	if strings.ToLower(os.Getenv("BOOKMIND_LOG_FORMAT")) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With(slog.String("service", "bookmind"))
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the [*slog.Logger] stored in ctx.
// If no logger is present it returns [slog.Default] so callers never
// need to nil-check.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// parseLevel converts a string to a [slog.Level], defaulting to Info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
