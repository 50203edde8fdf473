package model

import (
	"time"

	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// TrackedStatus is the render model for one row of a subscriber's tracked
// list. NextNotice is a derived display value recomputed from the ladder on
// every rendering; it is never persisted and never used as a scheduling input.
type TrackedStatus struct {
	Name          types.TrackedName
	ExpiresAt     time.Time
	DaysLeft      int
	NotifiedLevel types.UrgencyLevel
	HasNotified   bool
	NextNotice    types.UrgencyLevel
	HasNextNotice bool
	Unresolved    bool
}

// NextNoticeLevel derives the next escalation tier that would fire for a pair,
// given its current daysLeft and the last-notified level: the least urgent
// tier whose threshold is below daysLeft and whose priority exceeds the
// already-notified one. Returns false when no further notice is pending before
// the thresholds catch up with daysLeft.
func NextNoticeLevel(daysLeft int, notified types.UrgencyLevel, hasNotified bool) (types.UrgencyLevel, bool) {
	notifiedPriority := 0
	if hasNotified {
		notifiedPriority = notified.Priority()
	}
	for _, level := range types.AllUrgencyLevels() {
		if level.Threshold() >= daysLeft {
			continue
		}
		if level.Priority() <= notifiedPriority {
			continue
		}
		return level, true
	}
	return "", false
}
