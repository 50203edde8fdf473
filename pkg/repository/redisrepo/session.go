package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// sessionTTL bounds how long an abandoned conversation keeps its state. A
// session expiring mid-flow only costs the subscriber a repeated input step.
const sessionTTL = 12 * time.Hour

type sessionRepository struct {
	client *redis.Client
}

func sessionKey(subscriber types.SubscriberID) string {
	return sessionKeyPrefix + subscriber.String()
}

func (r *sessionRepository) Get(ctx context.Context, subscriber types.SubscriberID) (model.Session, error) {
	val, err := r.client.Get(ctx, sessionKey(subscriber)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, nil
	}
	if err != nil {
		return model.Session{}, goerr.Wrap(model.ErrStoreUnavailable, "failed to get session",
			goerr.V("subscriber", subscriber))
	}

	var session model.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		// A corrupt session is discarded rather than blocking the
		// conversation; the subscriber starts over from idle.
		return model.Session{}, nil
	}
	return session, nil
}

func (r *sessionRepository) Put(ctx context.Context, subscriber types.SubscriberID, session model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal session", goerr.V("subscriber", subscriber))
	}

	if err := r.client.Set(ctx, sessionKey(subscriber), data, sessionTTL).Err(); err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to put session",
			goerr.V("subscriber", subscriber))
	}
	return nil
}
