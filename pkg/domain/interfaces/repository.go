package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Tracking() TrackingRepository
	Notification() NotificationRepository
	Session() SessionRepository

	Close() error
}
