package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithGroup returns a context whose logger carries the group key, so every
// line on one connection's message path names its channel without each call
// site re-attaching the field.
func WithGroup(ctx context.Context, groupKey string) context.Context {
	child := Ctx(ctx).With().Str(FieldGroupKey, groupKey).Logger()
	return WithLogger(ctx, child)
}

// Ctx retrieves the logger from the context, falling back to the global
// logger when none was attached.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}
