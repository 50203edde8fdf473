package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/service/msg"
	"github.com/secmon-lab/nswatch/pkg/utils/errutil"
	"github.com/slack-go/slack"
)

// collaboratorTimeout bounds every call to the resolution and messaging
// collaborators so a hung external call cannot stall an interaction or a
// sweep pair indefinitely.
const collaboratorTimeout = 15 * time.Second

// DefaultNameSuffix qualifies bare labels entered by subscribers
const DefaultNameSuffix = "ns"

// Bot implements the per-subscriber conversation state machine: it gates
// multi-step input through the session's wait state and applies track/untrack
// mutations against the subscription store.
type Bot struct {
	repo       interfaces.Repository
	resolver   interfaces.RecordResolver
	gateway    interfaces.MessagingGateway
	templates  *model.Templates
	nameSuffix string
	now        func() time.Time
}

// Option is a functional option for Bot configuration
type Option func(*Bot)

// WithTemplates overrides the notification templates
func WithTemplates(t *model.Templates) Option {
	return func(b *Bot) {
		b.templates = t
	}
}

// WithNameSuffix overrides the suffix used to qualify bare labels
func WithNameSuffix(suffix string) Option {
	return func(b *Bot) {
		b.nameSuffix = suffix
	}
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		b.now = now
	}
}

// NewBot creates the conversation handler
func NewBot(repo interfaces.Repository, resolver interfaces.RecordResolver, gateway interfaces.MessagingGateway, opts ...Option) *Bot {
	b := &Bot{
		repo:       repo,
		resolver:   resolver,
		gateway:    gateway,
		templates:  model.DefaultTemplates(),
		nameSuffix: DefaultNameSuffix,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Templates returns the active notification templates
func (b *Bot) Templates() *model.Templates {
	return b.templates
}

// HandleStart resets the session and greets the subscriber. The greeting
// wording varies when the previous idle input was not understood.
func (b *Bot) HandleStart(ctx context.Context, subscriber types.SubscriberID) error {
	prior, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return b.reportError(ctx, subscriber, err)
	}
	if err := b.repo.Session().Put(ctx, subscriber, model.Session{}); err != nil {
		return b.reportError(ctx, subscriber, err)
	}

	greeting := "Hi! I keep an eye on name expirations for you."
	if prior.WasConfused {
		greeting = "Let's start over. I watch name expirations and ping you before they lapse."
	}

	blocks := []slack.Block{
		msg.Section(greeting + "\nWhat would you like to do?"),
		b.entryActions(),
	}
	return b.send(ctx, subscriber, greeting, blocks)
}

// HandleText routes one free-form input through the session's wait state.
// Whichever handler consumes the input, the wait state is cleared first: a
// field set to satisfy one pending step must never leak into a later one.
func (b *Bot) HandleText(ctx context.Context, subscriber types.SubscriberID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return b.sendText(ctx, subscriber, "I got an empty message. Type a name or an address, or use the buttons.")
	}

	session, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return b.reportError(ctx, subscriber, err)
	}

	session, waiting := session.ConsumeWaiting()

	switch waiting {
	case types.WaitName:
		if err := b.repo.Session().Put(ctx, subscriber, session); err != nil {
			return b.reportError(ctx, subscriber, err)
		}
		if err := b.handleNameInput(ctx, subscriber, text); err != nil {
			return b.reportError(ctx, subscriber, err)
		}
		return nil

	case types.WaitAddress:
		if err := b.repo.Session().Put(ctx, subscriber, session); err != nil {
			return b.reportError(ctx, subscriber, err)
		}
		if err := b.handleAddressInput(ctx, subscriber, text); err != nil {
			return b.reportError(ctx, subscriber, err)
		}
		return nil

	default:
		session = session.WithConfused(true)
		if err := b.repo.Session().Put(ctx, subscriber, session); err != nil {
			return b.reportError(ctx, subscriber, err)
		}
		blocks := []slack.Block{
			msg.Section("I didn't catch that. Pick an action below, or send `/nswatch help`."),
			b.entryActions(),
		}
		return b.send(ctx, subscriber, "I didn't catch that.", blocks)
	}
}

// HandleAction dispatches one parsed interactive action
func (b *Bot) HandleAction(ctx context.Context, subscriber types.SubscriberID, action model.BotAction) error {
	var err error
	switch action.ID {
	case types.ActionSearchByName:
		err = b.promptFor(ctx, subscriber, types.WaitName,
			"Which name should I look up? Send it as free text, e.g. `alice` or `alice."+b.nameSuffix+"`.")
	case types.ActionSearchByAddress:
		err = b.promptFor(ctx, subscriber, types.WaitAddress,
			"Send me a raw address (`0x…`) or a name reference (`@alice`), and I'll list what it owns.")
	case types.ActionConfirmTrack:
		err = b.confirmTrack(ctx, subscriber)
	case types.ActionShowTrackers:
		err = b.showTrackers(ctx, subscriber)
	case types.ActionUntrackIndex:
		err = b.untrackByIndex(ctx, subscriber, action.Index)
	case types.ActionUntrackName:
		err = b.untrackByName(ctx, subscriber, action.Name)
	case types.ActionSearchOwner:
		err = b.searchOwner(ctx, subscriber)
	case types.ActionRestart:
		return b.HandleStart(ctx, subscriber)
	case types.ActionEraseData:
		err = b.eraseData(ctx, subscriber)
	default:
		err = goerr.Wrap(model.ErrInvalidInput, "unhandled action", goerr.V("action_id", action.ID))
	}

	if err != nil {
		return b.reportError(ctx, subscriber, err)
	}
	return nil
}

// promptFor moves the session into a wait state and asks for the input
func (b *Bot) promptFor(ctx context.Context, subscriber types.SubscriberID, waiting types.WaitState, prompt string) error {
	session, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return err
	}
	if err := b.repo.Session().Put(ctx, subscriber, session.WithWaiting(waiting)); err != nil {
		return err
	}
	return b.sendText(ctx, subscriber, prompt)
}

// entryActions builds the top-level action buttons shown with greetings
func (b *Bot) entryActions() *slack.ActionBlock {
	return msg.Actions(
		msg.Button(types.ActionSearchByName, "", "Search by name"),
		msg.Button(types.ActionSearchByAddress, "", "Search by address"),
		msg.Button(types.ActionShowTrackers, "", "My trackers"),
	)
}

// reportError logs the failure and sends the subscriber a neutral notice
// matched to the failure taxonomy. The original error is returned for the
// caller's logging.
func (b *Bot) reportError(ctx context.Context, subscriber types.SubscriberID, err error) error {
	errutil.Handle(ctx, err, "bot interaction failed")

	notice := "Something went wrong on my side. Please try again."
	switch {
	case errors.Is(err, model.ErrLookupUnavailable):
		notice = "Hmm, something's off with the name service right now. Please try again in a bit."
	case errors.Is(err, model.ErrStoreUnavailable):
		notice = "I couldn't reach my storage. Please try again later."
	case errors.Is(err, model.ErrTransportFailure):
		// Replying over the same broken transport would fail too
		return err
	}

	_ = b.sendText(ctx, subscriber, notice)
	return err
}

func (b *Bot) send(ctx context.Context, subscriber types.SubscriberID, fallback string, blocks []slack.Block) error {
	sendCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return b.gateway.SendBlocks(sendCtx, subscriber, fallback, blocks)
}

func (b *Bot) sendText(ctx context.Context, subscriber types.SubscriberID, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return b.gateway.SendText(sendCtx, subscriber, text)
}
