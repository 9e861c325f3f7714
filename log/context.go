// Package log carries zap loggers through request contexts.
package log

import (
	"context"

	"go.uber.org/zap"
)

type ctxMarker struct{}

var (
	ctxMarkerKey = &ctxMarker{}
	nullLogger   = zap.NewNop()
)

// New builds the process logger. "production" gets JSON output at info
// level, anything else the human-readable development config.
func New(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// FromContext retrieves a *zap.Logger embedded in a context.Context using ToContext.
func FromContext(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(ctxMarkerKey).(*zap.Logger)
	if !ok {
		return nullLogger
	}
	return logger.With() // copy
}

// ToContext embeds a *zap.Logger in a context.Context
func ToContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxMarkerKey, logger)
}

// With decorates the context's logger with extra fields.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return ToContext(ctx, FromContext(ctx).With(fields...))
}
