package redisrepo

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

type notificationRepository struct {
	client *redis.Client
}

func notificationKey(subscriber types.SubscriberID, name types.TrackedName) string {
	return notificationsKeyPrefix + subscriber.String() + ":" + name.String()
}

func (r *notificationRepository) GetNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (types.UrgencyLevel, bool, error) {
	val, err := r.client.Get(ctx, notificationKey(subscriber, name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(model.ErrStoreUnavailable, "failed to get notified level",
			goerr.V("subscriber", subscriber), goerr.V("name", name))
	}

	level, err := types.ParseUrgencyLevel(val)
	if err != nil {
		// Unparseable history is treated as absent so the sweep can
		// re-notify instead of stalling forever.
		return "", false, nil
	}
	return level, true, nil
}

func (r *notificationRepository) SetNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName, level types.UrgencyLevel) error {
	err := r.client.Set(ctx, notificationKey(subscriber, name), level.String(), interfaces.NotificationTTL).Err()
	if err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to set notified level",
			goerr.V("subscriber", subscriber), goerr.V("name", name), goerr.V("level", level))
	}
	return nil
}

func (r *notificationRepository) ClearNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) error {
	if err := r.client.Del(ctx, notificationKey(subscriber, name)).Err(); err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to clear notified level",
			goerr.V("subscriber", subscriber), goerr.V("name", name))
	}
	return nil
}
