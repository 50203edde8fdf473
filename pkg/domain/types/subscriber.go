package types

import "github.com/m-mizutani/goerr/v2"

// SubscriberID identifies a notification destination. One subscriber maps to
// one direct-message conversation; it is created on first interaction and only
// removed by an explicit data-erasure request.
type SubscriberID string

// Validate checks if the subscriber ID is valid
func (s SubscriberID) Validate() error {
	if s == "" {
		return goerr.New("subscriber ID is empty")
	}
	return nil
}

// String returns the string representation of the subscriber ID
func (s SubscriberID) String() string {
	return string(s)
}
