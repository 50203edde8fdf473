package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// NotificationTTL bounds how long sent-notification history is retained. Once
// the last entry for a pair expires, a later sweep starts the ladder fresh.
const NotificationTTL = 60 * 24 * time.Hour

// NotificationRepository stores the last-sent urgency level per
// (subscriber, name) pair with a rolling TTL. Absence means never notified or
// history expired. A stored level only moves forward on the ladder while the
// pair stays tracked.
type NotificationRepository interface {
	// GetNotifiedLevel returns the last-sent level for the pair; ok is false
	// when no (unexpired) history exists
	GetNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (types.UrgencyLevel, bool, error)

	// SetNotifiedLevel records the last-sent level with a fresh TTL
	SetNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName, level types.UrgencyLevel) error

	// ClearNotifiedLevel drops the pair's history so a future re-track starts
	// the ladder from the beginning
	ClearNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) error
}
