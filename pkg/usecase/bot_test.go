package usecase_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/repository/memory"
	"github.com/secmon-lab/nswatch/pkg/usecase"
	"github.com/slack-go/slack"
)

type mockResolver struct {
	lookupFn func(ctx context.Context, name types.TrackedName) (*model.Record, error)
	listFn   func(ctx context.Context, address string) ([]*model.Record, error)
	ownerFn  func(ctx context.Context, objectID string) (string, error)
}

func (m *mockResolver) LookupByName(ctx context.Context, name types.TrackedName) (*model.Record, error) {
	if m.lookupFn == nil {
		return nil, nil
	}
	return m.lookupFn(ctx, name)
}

func (m *mockResolver) ListOwnedNames(ctx context.Context, address string) ([]*model.Record, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx, address)
}

func (m *mockResolver) ResolveOwner(ctx context.Context, objectID string) (string, error) {
	if m.ownerFn == nil {
		return "", nil
	}
	return m.ownerFn(ctx, objectID)
}

type sentMessage struct {
	subscriber types.SubscriberID
	text       string
	blocks     []slack.Block
}

type mockGateway struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *mockGateway) SendText(ctx context.Context, subscriber types.SubscriberID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{subscriber: subscriber, text: text})
	return nil
}

func (m *mockGateway) SendBlocks(ctx context.Context, subscriber types.SubscriberID, text string, blocks []slack.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{subscriber: subscriber, text: text, blocks: blocks})
	return nil
}

func (m *mockGateway) last(t *testing.T) sentMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	gt.Number(t, len(m.sent)).GreaterOrEqual(1)
	return m.sent[len(m.sent)-1]
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestHandleStartResetsSession(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	gt.NoError(t, repo.Session().Put(ctx, "U001", model.Session{}.WithWaiting(types.WaitName))).Required()

	gt.NoError(t, bot.HandleStart(ctx, "U001")).Required()

	session, err := repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Value(t, session).Equal(model.Session{})

	last := gateway.last(t)
	gt.Bool(t, strings.Contains(last.text, "name expirations")).True()
	gt.Array(t, last.blocks).Length(2)
}

func TestHandleTextWithoutWaitStateAsksForAction(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	gt.NoError(t, bot.HandleText(ctx, "U001", "what do I do")).Required()

	session, err := repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Bool(t, session.WasConfused).True()

	// The next greeting acknowledges the confusion
	gt.NoError(t, bot.HandleStart(ctx, "U001")).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "start over")).True()
}

func TestHandleTextEmptyInput(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))

	gt.NoError(t, bot.HandleText(context.Background(), "U001", "   ")).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "empty message")).True()
}

func TestNameSearchAndTrackFlow(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	resolver := &mockResolver{
		lookupFn: func(ctx context.Context, name types.TrackedName) (*model.Record, error) {
			gt.Value(t, name).Equal(types.TrackedName("alice.ns"))
			return &model.Record{
				Name:          "alice.ns",
				ExpiresAt:     time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
				TargetAddress: "0xabc",
			}, nil
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	// Button press arms the wait state and prompts
	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionSearchByName})).Required()

	session, err := repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Value(t, session.Waiting).Equal(types.WaitName)

	// Free-form input is normalized, looked up and staged for tracking
	gt.NoError(t, bot.HandleText(ctx, "U001", "Alice")).Required()

	session, err = repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Value(t, session.Waiting).Equal(types.WaitNone)
	gt.Value(t, session.PendingTrack).NotNil()
	gt.Value(t, session.PendingTrack.Name).Equal(types.TrackedName("alice.ns"))

	gt.Bool(t, strings.Contains(gateway.last(t).text, "alice.ns is registered")).True()

	// Confirmation subscribes and consumes the staged record
	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionConfirmTrack})).Required()

	names, err := repo.Tracking().ListTracked(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Array(t, names).Equal([]types.TrackedName{"alice.ns"})
	gt.Bool(t, strings.Contains(gateway.last(t).text, "Now tracking")).True()

	// The staged record was consumed; a second press is stale
	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionConfirmTrack})).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "stale")).True()
}

func TestNameSearchUnregistered(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionSearchByName})).Required()
	gt.NoError(t, bot.HandleText(ctx, "U001", "ghost")).Required()

	gt.Bool(t, strings.Contains(gateway.last(t).text, "isn't registered")).True()

	session, err := repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Value(t, session.PendingTrack).Nil()
}

func TestLookupFailureSendsServiceNotice(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	resolver := &mockResolver{
		lookupFn: func(ctx context.Context, name types.TrackedName) (*model.Record, error) {
			return nil, model.ErrLookupUnavailable
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionSearchByName})).Required()

	gt.Error(t, bot.HandleText(ctx, "U001", "alice"))
	gt.Bool(t, strings.Contains(gateway.last(t).text, "name service")).True()
}

func TestConfirmTrackIsIdempotentNotice(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	record := &model.Record{Name: "alice.ns", ExpiresAt: time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)}
	_, err := repo.Tracking().Track(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.Session().Put(ctx, "U001", model.Session{}.WithPendingTrack(record))).Required()

	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionConfirmTrack})).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "already tracking")).True()
}

func TestUntrackByNameClearsHistory(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	_, err := repo.Tracking().Track(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.Notification().SetNotifiedLevel(ctx, "U001", "alice.ns", types.Level14Days)).Required()

	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionUntrackName, Name: "alice.ns"})).Required()

	names, err := repo.Tracking().ListTracked(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Array(t, names).Length(0)

	// History is gone, so a re-track starts the ladder from scratch
	_, ok, err := repo.Notification().GetNotifiedLevel(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()
	gt.Bool(t, ok).False()
}

func TestEraseData(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	_, err := repo.Tracking().Track(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()
	_, err = repo.Tracking().Track(ctx, "U001", "bob.ns")
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.Session().Put(ctx, "U001", model.Session{}.WithWaiting(types.WaitName))).Required()

	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionEraseData})).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "2 tracked name(s)")).True()

	names, err := repo.Tracking().ListTracked(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Array(t, names).Length(0)

	session, err := repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Value(t, session).Equal(model.Session{})
}

func TestEraseDataWithNothingStored(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))

	gt.NoError(t, bot.HandleAction(context.Background(), "U404", model.BotAction{ID: types.ActionEraseData})).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "Nothing was stored")).True()
}

func TestStats(t *testing.T) {
	repo := memory.New()
	bot := usecase.NewBot(repo, &mockResolver{}, &mockGateway{}, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	_, err := repo.Tracking().Track(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()
	_, err = repo.Tracking().Track(ctx, "U001", "bob.ns")
	gt.NoError(t, err).Required()
	_, err = repo.Tracking().Track(ctx, "U002", "alice.ns")
	gt.NoError(t, err).Required()

	stats, err := bot.Stats(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, stats).Equal("2 subscriber(s) watching 2 distinct name(s) (3 pairs).")
}
