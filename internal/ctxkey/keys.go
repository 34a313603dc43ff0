// Package ctxkey carries request-scoped values from the inbound adapters to
// the services. It must not import other internal packages.
package ctxkey

import (
	"context"
	"log/slog"
)

// LoggerKey is the context key type for the request logger.
type LoggerKey struct{}

// WithLogger returns a copy of ctx carrying logger. Batch entries processed
// under ctx log through it, so request_id and caller appear on every line.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey{}, logger)
}

// Logger returns the request logger, or nil when ctx carries none.
func Logger(ctx context.Context) *slog.Logger {
	logger, _ := ctx.Value(LoggerKey{}).(*slog.Logger)
	return logger
}
