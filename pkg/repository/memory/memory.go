package memory

import (
	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
)

// Memory is an in-memory repository used for development and tests. All
// state is lost on restart.
type Memory struct {
	tracking     *trackingRepository
	notification *notificationRepository
	session      *sessionRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		tracking:     newTrackingRepository(),
		notification: newNotificationRepository(),
		session:      newSessionRepository(),
	}
}

func (m *Memory) Tracking() interfaces.TrackingRepository {
	return m.tracking
}

func (m *Memory) Notification() interfaces.NotificationRepository {
	return m.notification
}

func (m *Memory) Session() interfaces.SessionRepository {
	return m.session
}

func (m *Memory) Close() error {
	return nil
}
