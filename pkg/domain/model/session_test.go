package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

func TestSessionTransitionsDoNotMutateOriginal(t *testing.T) {
	base := model.Session{}

	derived := base.WithWaiting(types.WaitName)
	gt.Value(t, derived.Waiting).Equal(types.WaitName)
	gt.Value(t, base.Waiting).Equal(types.WaitNone)

	derived = derived.WithConfused(true)
	gt.Bool(t, base.WasConfused).False()
	gt.Bool(t, derived.WasConfused).True()
}

func TestConsumeWaitingIsOneShot(t *testing.T) {
	session := model.Session{}.WithWaiting(types.WaitAddress)

	session, waiting := session.ConsumeWaiting()
	gt.Value(t, waiting).Equal(types.WaitAddress)

	_, waiting = session.ConsumeWaiting()
	gt.Value(t, waiting).Equal(types.WaitNone)
}

func TestConsumePendingTrackIsOneShot(t *testing.T) {
	record := &model.Record{Name: "alice.ns"}
	session := model.Session{}.WithPendingTrack(record)

	session, got := session.ConsumePendingTrack()
	gt.Value(t, got).Equal(record)

	_, got = session.ConsumePendingTrack()
	gt.Value(t, got).Nil()
}

func TestConsumeRecentLookupIsOneShot(t *testing.T) {
	session := model.Session{}.WithRecentLookup("0xabc")

	session, addr := session.ConsumeRecentLookup()
	gt.Value(t, addr).Equal("0xabc")

	_, addr = session.ConsumeRecentLookup()
	gt.Value(t, addr).Equal("")
}

func TestWithWaitingDropsStaleLookupState(t *testing.T) {
	session := model.Session{}.
		WithPendingTrack(&model.Record{Name: "alice.ns"}).
		WithRecentLookup("0xabc")

	// Starting a new input flow invalidates the staged lookup results
	session = session.WithWaiting(types.WaitName)
	gt.Value(t, session.PendingTrack).Nil()
	gt.Value(t, session.RecentLookup).Equal("")
}

func TestListedAt(t *testing.T) {
	names := []types.TrackedName{"alice.ns", "bob.ns", "carol.ns"}
	session := model.Session{}.WithListed(names)

	name, ok := session.ListedAt(1)
	gt.Bool(t, ok).True()
	gt.Value(t, name).Equal(types.TrackedName("alice.ns"))

	name, ok = session.ListedAt(3)
	gt.Bool(t, ok).True()
	gt.Value(t, name).Equal(types.TrackedName("carol.ns"))

	_, ok = session.ListedAt(0)
	gt.Bool(t, ok).False()
	_, ok = session.ListedAt(4)
	gt.Bool(t, ok).False()

	// The snapshot is insulated from later mutation of the source slice
	names[0] = "mallory.ns"
	name, ok = session.ListedAt(1)
	gt.Bool(t, ok).True()
	gt.Value(t, name).Equal(types.TrackedName("alice.ns"))
}
