package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// trackingRepository keeps the tracking relation under one mutex. Holding it
// across the whole untrack sequence serializes the global-set cleanup check
// against concurrent tracks, which is the one ordering the store must provide.
type trackingRepository struct {
	mu          sync.RWMutex
	trackers    map[types.SubscriberID]map[types.TrackedName]struct{}
	allNames    map[types.TrackedName]struct{}
	subscribers map[types.SubscriberID]struct{}
}

func newTrackingRepository() *trackingRepository {
	return &trackingRepository{
		trackers:    make(map[types.SubscriberID]map[types.TrackedName]struct{}),
		allNames:    make(map[types.TrackedName]struct{}),
		subscribers: make(map[types.SubscriberID]struct{}),
	}
}

func (r *trackingRepository) Track(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, exists := r.trackers[subscriber]
	if !exists {
		set = make(map[types.TrackedName]struct{})
		r.trackers[subscriber] = set
	}

	_, tracked := set[name]
	set[name] = struct{}{}
	r.allNames[name] = struct{}{}
	r.subscribers[subscriber] = struct{}{}

	return !tracked, nil
}

func (r *trackingRepository) Untrack(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, exists := r.trackers[subscriber]
	if !exists {
		return false, nil
	}
	if _, tracked := set[name]; !tracked {
		return false, nil
	}

	delete(set, name)
	r.cleanupGlobal(name)
	return true, nil
}

// cleanupGlobal removes a name from the global set when no subscriber still
// tracks it. Callers must hold the write lock.
func (r *trackingRepository) cleanupGlobal(name types.TrackedName) {
	for _, set := range r.trackers {
		if _, tracked := set[name]; tracked {
			return
		}
	}
	delete(r.allNames, name)
}

func (r *trackingRepository) ListTracked(ctx context.Context, subscriber types.SubscriberID) ([]types.TrackedName, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.trackers[subscriber]
	names := make([]types.TrackedName, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names, nil
}

func (r *trackingRepository) ListTrackedNames(ctx context.Context) ([]types.TrackedName, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.TrackedName, 0, len(r.allNames))
	for name := range r.allNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names, nil
}

func (r *trackingRepository) ListAllTrackers(ctx context.Context) (map[types.SubscriberID][]types.TrackedName, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[types.SubscriberID][]types.TrackedName, len(r.trackers))
	for subscriber, set := range r.trackers {
		if len(set) == 0 {
			continue
		}
		names := make([]types.TrackedName, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
		result[subscriber] = names
	}
	return result, nil
}

func (r *trackingRepository) EraseAll(ctx context.Context, subscriber types.SubscriberID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.trackers[subscriber]
	removed := len(set)

	delete(r.trackers, subscriber)
	for name := range set {
		r.cleanupGlobal(name)
	}
	delete(r.subscribers, subscriber)

	return removed, nil
}
