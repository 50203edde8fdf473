package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/repository/memory"
	"github.com/secmon-lab/nswatch/pkg/usecase"
	"github.com/slack-go/slack"
)

func TestShowTrackersEmptyList(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))

	gt.NoError(t, bot.HandleAction(context.Background(), "U001", model.BotAction{ID: types.ActionShowTrackers})).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "No tracked names yet")).True()
}

func TestShowTrackersSnapshotsOrderForPositionalUntrack(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	now := fixedClock()

	records := map[types.TrackedName]*model.Record{
		"alice.ns": {Name: "alice.ns", ExpiresAt: now().Add(40 * 24 * time.Hour)},
		"bob.ns":   {Name: "bob.ns", ExpiresAt: now().Add(2 * 24 * time.Hour)},
	}
	resolver := &mockResolver{
		lookupFn: func(ctx context.Context, name types.TrackedName) (*model.Record, error) {
			return records[name], nil
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(now))
	ctx := context.Background()

	_, err := repo.Tracking().Track(ctx, "U001", "bob.ns")
	gt.NoError(t, err).Required()
	_, err = repo.Tracking().Track(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()

	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionShowTrackers})).Required()

	// Rows come in the store's sorted order: alice first, bob second
	session, err := repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	name, ok := session.ListedAt(2)
	gt.Bool(t, ok).True()
	gt.Value(t, name).Equal(types.TrackedName("bob.ns"))

	// "Stop #2" removes bob even though a later sort could reorder rows
	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionUntrackIndex, Index: 2})).Required()

	names, err := repo.Tracking().ListTracked(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Array(t, names).Equal([]types.TrackedName{"alice.ns"})
	gt.Bool(t, strings.Contains(gateway.last(t).text, "Stopped tracking")).True()
}

func TestUntrackByIndexStaleSnapshot(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))
	ctx := context.Background()

	_, err := repo.Tracking().Track(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()

	// No list was rendered, so any positional action is stale and must not
	// touch the store
	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionUntrackIndex, Index: 1})).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "stale")).True()

	names, err := repo.Tracking().ListTracked(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Array(t, names).Length(1)
}

func TestShowTrackersMarksUnresolvedRows(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	now := fixedClock()
	resolver := &mockResolver{
		lookupFn: func(ctx context.Context, name types.TrackedName) (*model.Record, error) {
			if name == "broken.ns" {
				return nil, model.ErrLookupUnavailable
			}
			return &model.Record{Name: name, ExpiresAt: now().Add(10 * 24 * time.Hour)}, nil
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(now))
	ctx := context.Background()

	_, err := repo.Tracking().Track(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()
	_, err = repo.Tracking().Track(ctx, "U001", "broken.ns")
	gt.NoError(t, err).Required()

	// A resolution failure degrades that row, not the whole rendering
	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionShowTrackers})).Required()

	last := gateway.last(t)
	gt.Bool(t, strings.Contains(last.text, "Tracking 2 name(s)")).True()

	// Both rows still land in the positional snapshot
	session, err := repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	_, ok := session.ListedAt(2)
	gt.Bool(t, ok).True()
}

func TestShowTrackersFooterOffersDangerStyledErase(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	now := fixedClock()
	resolver := &mockResolver{
		lookupFn: func(ctx context.Context, name types.TrackedName) (*model.Record, error) {
			return &model.Record{Name: name, ExpiresAt: now().Add(10 * 24 * time.Hour)}, nil
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(now))
	ctx := context.Background()

	_, err := repo.Tracking().Track(ctx, "U001", "alice.ns")
	gt.NoError(t, err).Required()

	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionShowTrackers})).Required()

	last := gateway.last(t)
	footer, ok := last.blocks[len(last.blocks)-1].(*slack.ActionBlock)
	gt.Bool(t, ok).True()

	var erase *slack.ButtonBlockElement
	for _, el := range footer.Elements.ElementSet {
		if btn, ok := el.(*slack.ButtonBlockElement); ok && btn.ActionID == types.ActionEraseData.String() {
			erase = btn
		}
	}
	gt.Value(t, erase).NotNil()
	gt.Value(t, erase.Style).Equal(slack.StyleDanger)
}
