package interfaces

import (
	"context"

	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// SessionRepository holds the ephemeral per-subscriber conversation state.
// Sessions are not durable; a backend may drop them at any time and Get then
// returns the zero session.
type SessionRepository interface {
	// Get returns the subscriber's session, or the zero session when absent
	Get(ctx context.Context, subscriber types.SubscriberID) (model.Session, error)

	// Put replaces the subscriber's session
	Put(ctx context.Context, subscriber types.SubscriberID, session model.Session) error
}
