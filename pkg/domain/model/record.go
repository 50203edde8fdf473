package model

import (
	"time"

	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// Record is a name record resolved from the external name service.
type Record struct {
	Name          types.TrackedName
	ExpiresAt     time.Time
	TargetAddress string
	OwnerObjectID string
}

// DaysLeft returns whole days until the record expires, relative to now.
// Negative for an already expired record.
func (r *Record) DaysLeft(now time.Time) int {
	return types.DaysUntil(r.ExpiresAt, now)
}
