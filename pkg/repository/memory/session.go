package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[types.SubscriberID]model.Session
}

func newSessionRepository() *sessionRepository {
	return &sessionRepository{
		sessions: make(map[types.SubscriberID]model.Session),
	}
}

func (r *sessionRepository) Get(ctx context.Context, subscriber types.SubscriberID) (model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Session is a value type; LastListed is replaced wholesale on write, so
	// returning the shared slice is safe as long as callers never mutate it.
	return r.sessions[subscriber], nil
}

func (r *sessionRepository) Put(ctx context.Context, subscriber types.SubscriberID, session model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[subscriber] = session
	return nil
}
