package interfaces

import (
	"context"

	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/slack-go/slack"
)

// MessagingGateway delivers formatted messages to a subscriber's conversation
type MessagingGateway interface {
	// SendText sends a plain text message
	SendText(ctx context.Context, subscriber types.SubscriberID, text string) error

	// SendBlocks sends a Block Kit message; text is the notification fallback
	SendBlocks(ctx context.Context, subscriber types.SubscriberID, text string, blocks []slack.Block) error
}

// RecordResolver looks up name records from the external name service.
// A transport failure is reported as an error wrapping
// model.ErrLookupUnavailable and is treated as "unknown", never as confirmed
// absence.
type RecordResolver interface {
	// LookupByName resolves a single name. Returns (nil, nil) when the name
	// is confirmed unregistered.
	LookupByName(ctx context.Context, name types.TrackedName) (*model.Record, error)

	// ListOwnedNames returns every record owned by the address. The result is
	// paginated upstream; all pages are drained before returning.
	ListOwnedNames(ctx context.Context, address string) ([]*model.Record, error)

	// ResolveOwner resolves the owning address of an object ID. Returns ""
	// when no owner is found.
	ResolveOwner(ctx context.Context, objectID string) (string, error)
}
