package memory

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

type notificationKey struct {
	subscriber types.SubscriberID
	name       types.TrackedName
}

type notificationEntry struct {
	level     types.UrgencyLevel
	expiresAt time.Time
}

// notificationRepository stores last-sent levels with lazy TTL expiry:
// entries past their deadline are treated as absent and dropped on access.
type notificationRepository struct {
	mu      sync.Mutex
	entries map[notificationKey]notificationEntry
	now     func() time.Time
}

func newNotificationRepository() *notificationRepository {
	return &notificationRepository{
		entries: make(map[notificationKey]notificationEntry),
		now:     time.Now,
	}
}

func (r *notificationRepository) GetNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) (types.UrgencyLevel, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := notificationKey{subscriber: subscriber, name: name}
	entry, exists := r.entries[key]
	if !exists {
		return "", false, nil
	}
	if r.now().After(entry.expiresAt) {
		delete(r.entries, key)
		return "", false, nil
	}
	return entry.level, true, nil
}

func (r *notificationRepository) SetNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName, level types.UrgencyLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[notificationKey{subscriber: subscriber, name: name}] = notificationEntry{
		level:     level,
		expiresAt: r.now().Add(interfaces.NotificationTTL),
	}
	return nil
}

func (r *notificationRepository) ClearNotifiedLevel(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, notificationKey{subscriber: subscriber, name: name})
	return nil
}
