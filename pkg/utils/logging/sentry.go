package logging

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// sentryHandler forwards records to the wrapped handler and additionally
// captures error-level records as Sentry events.
type sentryHandler struct {
	base slog.Handler
}

// WithSentry wraps a handler so error-level records are reported to Sentry.
// sentry.Init must have been called by the logger bootstrap.
func WithSentry(base slog.Handler) slog.Handler {
	return &sentryHandler{base: base}
}

func (h *sentryHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sentryHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelError {
		event := sentry.NewEvent()
		event.Level = sentry.LevelError
		event.Message = record.Message
		record.Attrs(func(attr slog.Attr) bool {
			event.Extra[attr.Key] = attr.Value.String()
			return true
		})
		sentry.CaptureEvent(event)
	}
	return h.base.Handle(ctx, record)
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sentryHandler{base: h.base.WithAttrs(attrs)}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	return &sentryHandler{base: h.base.WithGroup(name)}
}
