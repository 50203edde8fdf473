package types

import (
	"fmt"
	"time"
)

// UrgencyLevel represents an escalation tier of the notification ladder,
// keyed by days until expiration.
type UrgencyLevel string

const (
	Level30Days  UrgencyLevel = "30d"
	Level14Days  UrgencyLevel = "14d"
	Level3Days   UrgencyLevel = "3d"
	Level1Day    UrgencyLevel = "1d"
	LevelExpired UrgencyLevel = "expired"
)

// ladder holds the escalation tiers in ascending urgency. A tier applies when
// daysLeft <= Threshold.
var ladder = []struct {
	Level     UrgencyLevel
	Threshold int
}{
	{Level30Days, 30},
	{Level14Days, 14},
	{Level3Days, 3},
	{Level1Day, 1},
	{LevelExpired, 0},
}

// AllUrgencyLevels returns all levels in ascending urgency order
func AllUrgencyLevels() []UrgencyLevel {
	levels := make([]UrgencyLevel, len(ladder))
	for i, tier := range ladder {
		levels[i] = tier.Level
	}
	return levels
}

// IsValid checks if the urgency level is valid
func (l UrgencyLevel) IsValid() bool {
	switch l {
	case Level30Days, Level14Days, Level3Days, Level1Day, LevelExpired:
		return true
	default:
		return false
	}
}

// String returns the string representation of the urgency level
func (l UrgencyLevel) String() string {
	return string(l)
}

// Priority returns the ordinal position of the level on the ladder (1-5,
// higher is more urgent). Returns 0 for an unknown level.
func (l UrgencyLevel) Priority() int {
	for i, tier := range ladder {
		if tier.Level == l {
			return i + 1
		}
	}
	return 0
}

// Threshold returns the daysLeft threshold of the level. Returns -1 for an
// unknown level.
func (l UrgencyLevel) Threshold() int {
	for _, tier := range ladder {
		if tier.Level == l {
			return tier.Threshold
		}
	}
	return -1
}

// ParseUrgencyLevel parses a string into an UrgencyLevel
func ParseUrgencyLevel(s string) (UrgencyLevel, error) {
	level := UrgencyLevel(s)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid urgency level: %s", s)
	}
	return level, nil
}

// LevelForDays maps days-until-expiration to an escalation tier: the most
// urgent tier whose threshold still covers daysLeft. Two days left falls under
// the 3d tier, zero or negative days under expired. More than 30 days out, no
// notification is due and ok is false.
func LevelForDays(daysLeft int) (UrgencyLevel, bool) {
	for i := len(ladder) - 1; i >= 0; i-- {
		if daysLeft <= ladder[i].Threshold {
			return ladder[i].Level, true
		}
	}
	return "", false
}

// DaysUntil computes whole days between now and the expiration time, rounding
// toward negative infinity so that a record expiring later today counts as 0
// and an expired one as negative.
func DaysUntil(expiresAt, now time.Time) int {
	diff := expiresAt.UnixMilli() - now.UnixMilli()
	const dayMillis = 24 * 60 * 60 * 1000
	days := diff / dayMillis
	if diff < 0 && diff%dayMillis != 0 {
		days--
	}
	return int(days)
}
