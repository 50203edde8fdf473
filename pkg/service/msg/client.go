package msg

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/slack-go/slack"
)

// client implements interfaces.MessagingGateway on the Slack Web API. Each
// subscriber maps to a direct-message conversation; the conversation ID is
// resolved once and cached for the lifetime of the service.
type client struct {
	api *slack.Client

	mu       sync.RWMutex
	channels map[types.SubscriberID]string
}

var _ interfaces.MessagingGateway = &client{}

// New creates a messaging gateway with the provided bot token
func New(token string) (interfaces.MessagingGateway, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	return &client{
		api:      slack.New(token),
		channels: make(map[types.SubscriberID]string),
	}, nil
}

// AuthTest verifies the bot token against the Slack API
func AuthTest(ctx context.Context, token string) error {
	if _, err := slack.New(token).AuthTestContext(ctx); err != nil {
		return goerr.Wrap(err, "slack auth test failed")
	}
	return nil
}

func (c *client) SendText(ctx context.Context, subscriber types.SubscriberID, text string) error {
	return c.post(ctx, subscriber, slack.MsgOptionText(text, false))
}

func (c *client) SendBlocks(ctx context.Context, subscriber types.SubscriberID, text string, blocks []slack.Block) error {
	return c.post(ctx, subscriber,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
}

func (c *client) post(ctx context.Context, subscriber types.SubscriberID, opts ...slack.MsgOption) error {
	channelID, err := c.conversationFor(ctx, subscriber)
	if err != nil {
		return err
	}

	if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		return goerr.Wrap(model.ErrTransportFailure, "failed to post message",
			goerr.V("subscriber", subscriber), goerr.V("cause", err.Error()))
	}
	return nil
}

func (c *client) conversationFor(ctx context.Context, subscriber types.SubscriberID) (string, error) {
	c.mu.RLock()
	channelID, ok := c.channels[subscriber]
	c.mu.RUnlock()
	if ok {
		return channelID, nil
	}

	conv, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{subscriber.String()},
	})
	if err != nil {
		return "", goerr.Wrap(model.ErrTransportFailure, "failed to open conversation",
			goerr.V("subscriber", subscriber), goerr.V("cause", err.Error()))
	}

	c.mu.Lock()
	c.channels[subscriber] = conv.ID
	c.mu.Unlock()

	return conv.ID, nil
}
