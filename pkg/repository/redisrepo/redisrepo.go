package redisrepo

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
)

// Key layout, namespaced per concern:
//
//	trackers:<subscriber>              SET of tracked names
//	all-tracked-names                  SET, union of every subscriber's set
//	all-subscribers                    SET, subscriber registry
//	notifications:<subscriber>:<name>  STRING urgency level, EX 60d
//	session:<subscriber>               STRING JSON session, EX 12h
const (
	trackersKeyPrefix      = "trackers:"
	allTrackedNamesKey     = "all-tracked-names"
	allSubscribersKey      = "all-subscribers"
	notificationsKeyPrefix = "notifications:"
	sessionKeyPrefix       = "session:"
)

// Repository is a Redis-backed implementation of interfaces.Repository. Redis
// is the default production backend: the data model is flat namespaced sets
// plus TTL'd scalar keys, and the per-name atomicity the untrack cleanup
// needs is a single EVAL.
type Repository struct {
	client       *redis.Client
	tracking     *trackingRepository
	notification *notificationRepository
	session      *sessionRepository
}

var _ interfaces.Repository = &Repository{}

// New connects to Redis at addr and verifies the connection with a PING
func New(ctx context.Context, addr string) (*Repository, error) {
	if addr == "" {
		return nil, goerr.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "redis ping failed", goerr.V("addr", addr))
	}

	return &Repository{
		client:       client,
		tracking:     &trackingRepository{client: client},
		notification: &notificationRepository{client: client},
		session:      &sessionRepository{client: client},
	}, nil
}

func (r *Repository) Tracking() interfaces.TrackingRepository {
	return r.tracking
}

func (r *Repository) Notification() interfaces.NotificationRepository {
	return r.notification
}

func (r *Repository) Session() interfaces.SessionRepository {
	return r.session
}

// Ping checks if the Redis connection is healthy
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "redis ping failed")
	}
	return nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}
