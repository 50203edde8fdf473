package async

import (
	"context"

	"github.com/secmon-lab/nswatch/pkg/utils/logging"
)

// Dispatch runs a handler in a new goroutine, detached from the caller's
// cancellation but keeping its logger. Panics and errors are logged, never
// propagated; inbound webhook handlers use this to acknowledge within the
// transport deadline while the real work continues.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", err)
		}
	}()
}
