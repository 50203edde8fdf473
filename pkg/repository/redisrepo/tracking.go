package redisrepo

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

type trackingRepository struct {
	client *redis.Client
}

// untrackScript removes a name from one subscriber's set and, when no
// registered subscriber still tracks it, from the global set in one atomic
// EVAL. This closes the check-then-act race where a concurrent track by
// another subscriber would be invisible to the cleanup check.
//
// KEYS[1] = trackers:<subscriber>
// KEYS[2] = all-tracked-names
// KEYS[3] = all-subscribers
// ARGV[1] = name
// ARGV[2] = trackers key prefix
var untrackScript = redis.NewScript(`
local removed = redis.call('SREM', KEYS[1], ARGV[1])
local subscribers = redis.call('SMEMBERS', KEYS[3])
for _, s in ipairs(subscribers) do
  if redis.call('SISMEMBER', ARGV[2] .. s, ARGV[1]) == 1 then
    return removed
  end
end
redis.call('SREM', KEYS[2], ARGV[1])
return removed
`)

func trackersKey(subscriber types.SubscriberID) string {
	return trackersKeyPrefix + subscriber.String()
}

func (r *trackingRepository) Track(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (bool, error) {
	pipe := r.client.TxPipeline()
	added := pipe.SAdd(ctx, trackersKey(subscriber), name.String())
	pipe.SAdd(ctx, allTrackedNamesKey, name.String())
	pipe.SAdd(ctx, allSubscribersKey, subscriber.String())

	if _, err := pipe.Exec(ctx); err != nil {
		return false, goerr.Wrap(model.ErrStoreUnavailable, "failed to track name",
			goerr.V("subscriber", subscriber), goerr.V("name", name))
	}
	return added.Val() > 0, nil
}

func (r *trackingRepository) Untrack(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (bool, error) {
	keys := []string{trackersKey(subscriber), allTrackedNamesKey, allSubscribersKey}
	removed, err := untrackScript.Run(ctx, r.client, keys, name.String(), trackersKeyPrefix).Int()
	if err != nil {
		return false, goerr.Wrap(model.ErrStoreUnavailable, "failed to untrack name",
			goerr.V("subscriber", subscriber), goerr.V("name", name))
	}
	return removed > 0, nil
}

func (r *trackingRepository) ListTracked(ctx context.Context, subscriber types.SubscriberID) ([]types.TrackedName, error) {
	members, err := r.client.SMembers(ctx, trackersKey(subscriber)).Result()
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to list tracked names",
			goerr.V("subscriber", subscriber))
	}
	return toSortedNames(members), nil
}

func (r *trackingRepository) ListTrackedNames(ctx context.Context) ([]types.TrackedName, error) {
	members, err := r.client.SMembers(ctx, allTrackedNamesKey).Result()
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to list global tracked names")
	}
	return toSortedNames(members), nil
}

func (r *trackingRepository) ListAllTrackers(ctx context.Context) (map[types.SubscriberID][]types.TrackedName, error) {
	subscribers, err := r.client.SMembers(ctx, allSubscribersKey).Result()
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to list subscribers")
	}

	// One pipeline round trip for all per-subscriber sets. The snapshot is
	// eventually consistent across subscribers, which is all a sweep needs.
	pipe := r.client.Pipeline()
	cmds := make(map[types.SubscriberID]*redis.StringSliceCmd, len(subscribers))
	for _, s := range subscribers {
		subscriber := types.SubscriberID(s)
		cmds[subscriber] = pipe.SMembers(ctx, trackersKey(subscriber))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to snapshot tracker sets")
	}

	result := make(map[types.SubscriberID][]types.TrackedName, len(cmds))
	for subscriber, cmd := range cmds {
		members := cmd.Val()
		if len(members) == 0 {
			continue
		}
		result[subscriber] = toSortedNames(members)
	}
	return result, nil
}

func (r *trackingRepository) EraseAll(ctx context.Context, subscriber types.SubscriberID) (int, error) {
	names, err := r.ListTracked(ctx, subscriber)
	if err != nil {
		return 0, err
	}

	// Per-name atomic untrack keeps the global-set invariant even when other
	// subscribers track or untrack the same names concurrently.
	removed := 0
	for _, name := range names {
		ok, err := r.Untrack(ctx, subscriber, name)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}

	// The per-name untracks already emptied the subscriber's set. Deleting the
	// set key here would race a concurrent Track by the same subscriber and
	// strand its name in the global set without a tracker, so only the
	// registry entry is removed.
	if err := r.client.SRem(ctx, allSubscribersKey, subscriber.String()).Err(); err != nil {
		return removed, goerr.Wrap(model.ErrStoreUnavailable, "failed to erase subscriber",
			goerr.V("subscriber", subscriber))
	}
	return removed, nil
}

func toSortedNames(members []string) []types.TrackedName {
	names := make([]types.TrackedName, len(members))
	for i, m := range members {
		names[i] = types.TrackedName(m)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
