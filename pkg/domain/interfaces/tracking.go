package interfaces

import (
	"context"

	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// TrackingRepository persists the subscription relation: per-subscriber
// tracked sets, the global set of all tracked names, and the subscriber
// registry. The global set invariant is that a name belongs to it iff at
// least one subscriber currently tracks it.
type TrackingRepository interface {
	// Track adds a name to the subscriber's set, the global set and the
	// subscriber registry. Idempotent; reports whether the name was new for
	// this subscriber.
	Track(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (bool, error)

	// Untrack removes a name from the subscriber's set and, when no other
	// subscriber still tracks it, from the global set. The check-then-act
	// cleanup is serialized per name so a concurrent Track by another
	// subscriber cannot be missed. Reports whether the name was tracked.
	Untrack(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (bool, error)

	// ListTracked returns the subscriber's tracked names, sorted
	ListTracked(ctx context.Context, subscriber types.SubscriberID) ([]types.TrackedName, error)

	// ListTrackedNames returns the global set of tracked names, sorted
	ListTrackedNames(ctx context.Context) ([]types.TrackedName, error)

	// ListAllTrackers returns a subscriber-to-tracked-names snapshot for one
	// sweep pass. A track or untrack landing mid-call may be observed or
	// missed for that cycle; the sweep re-checks idempotently next cycle.
	ListAllTrackers(ctx context.Context) (map[types.SubscriberID][]types.TrackedName, error)

	// EraseAll removes the subscriber's entire tracked set, re-running the
	// global cleanup per removed name. Erasing zero items is not an error.
	// Returns the number of names removed.
	EraseAll(ctx context.Context, subscriber types.SubscriberID) (int, error)
}
