package model

import "github.com/secmon-lab/nswatch/pkg/domain/types"

// Session is the per-subscriber conversational state. It is an immutable
// value: every transition returns a new Session rather than mutating fields in
// place, and one-shot fields are cleared by the transition that consumes them.
// Losing a session is harmless; at worst the subscriber repeats an input step.
type Session struct {
	// Waiting gates which handler consumes the next free-form input
	Waiting types.WaitState
	// RecentLookup holds an owner address resolved by the last name lookup,
	// kept only until a follow-up "search this owner" action consumes it
	RecentLookup string
	// PendingTrack holds the record fetched by the last name lookup, awaiting
	// subscription confirmation
	PendingTrack *Record
	// LastListed is the ordered snapshot of tracked names from the last list
	// rendering, used to resolve positional untrack actions
	LastListed []types.TrackedName
	// WasConfused marks that the last idle input was not understood; it only
	// varies the wording of the next greeting
	WasConfused bool
}

// WithWaiting returns a session expecting the given input, with any stale
// one-shot lookup state dropped.
func (s Session) WithWaiting(w types.WaitState) Session {
	s.Waiting = w
	s.RecentLookup = ""
	s.PendingTrack = nil
	return s
}

// ConsumeWaiting clears the wait state and returns the previous one
func (s Session) ConsumeWaiting() (Session, types.WaitState) {
	w := s.Waiting
	s.Waiting = types.WaitNone
	return s, w
}

// WithPendingTrack stages a fetched record for subscription confirmation
func (s Session) WithPendingTrack(rec *Record) Session {
	s.PendingTrack = rec
	return s
}

// ConsumePendingTrack clears the staged record and returns it
func (s Session) ConsumePendingTrack() (Session, *Record) {
	rec := s.PendingTrack
	s.PendingTrack = nil
	return s, rec
}

// WithRecentLookup stages an owner address for a follow-up search action
func (s Session) WithRecentLookup(address string) Session {
	s.RecentLookup = address
	return s
}

// ConsumeRecentLookup clears the staged owner address and returns it
func (s Session) ConsumeRecentLookup() (Session, string) {
	addr := s.RecentLookup
	s.RecentLookup = ""
	return s, addr
}

// WithListed snapshots the rendered tracked-name order for positional actions
func (s Session) WithListed(names []types.TrackedName) Session {
	listed := make([]types.TrackedName, len(names))
	copy(listed, names)
	s.LastListed = listed
	return s
}

// ListedAt resolves a 1-based position from the last rendered list
func (s Session) ListedAt(index int) (types.TrackedName, bool) {
	if index < 1 || index > len(s.LastListed) {
		return "", false
	}
	return s.LastListed[index-1], true
}

// WithConfused marks whether the last idle input was understood
func (s Session) WithConfused(confused bool) Session {
	s.WasConfused = confused
	return s
}
