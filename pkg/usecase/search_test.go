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
)

const testAddress = "0x" + "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func armAddressWait(t *testing.T, bot *usecase.Bot, subscriber types.SubscriberID) {
	t.Helper()
	gt.NoError(t, bot.HandleAction(context.Background(), subscriber, model.BotAction{ID: types.ActionSearchByAddress})).Required()
}

func TestAddressSearchWithRawAddress(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	now := fixedClock()
	resolver := &mockResolver{
		listFn: func(ctx context.Context, address string) ([]*model.Record, error) {
			gt.Value(t, address).Equal(testAddress)
			return []*model.Record{
				{Name: "late.ns", ExpiresAt: now().Add(60 * 24 * time.Hour)},
				{Name: "soon.ns", ExpiresAt: now().Add(5 * 24 * time.Hour)},
			}, nil
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(now))

	armAddressWait(t, bot, "U001")
	gt.NoError(t, bot.HandleText(context.Background(), "U001", strings.ToUpper(testAddress[:2])+testAddress[2:])).Required()

	last := gateway.last(t)
	gt.Bool(t, strings.Contains(last.text, "owns 2 name(s)")).True()
}

func TestAddressSearchWithOwnerlessAddress(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	resolver := &mockResolver{
		listFn: func(ctx context.Context, address string) ([]*model.Record, error) {
			return nil, nil
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(fixedClock()))

	armAddressWait(t, bot, "U001")
	gt.NoError(t, bot.HandleText(context.Background(), "U001", testAddress)).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "doesn't own any names")).True()
}

func TestAddressSearchViaNameTarget(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	now := fixedClock()
	resolver := &mockResolver{
		lookupFn: func(ctx context.Context, name types.TrackedName) (*model.Record, error) {
			return &model.Record{Name: name, TargetAddress: testAddress, ExpiresAt: now().Add(time.Hour)}, nil
		},
		listFn: func(ctx context.Context, address string) ([]*model.Record, error) {
			gt.Value(t, address).Equal(testAddress)
			return []*model.Record{{Name: "alice.ns", ExpiresAt: now().Add(time.Hour)}}, nil
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(now))

	armAddressWait(t, bot, "U001")
	gt.NoError(t, bot.HandleText(context.Background(), "U001", "@alice")).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "owns 1 name(s)")).True()
}

func TestAddressSearchFallsBackToOwnerResolution(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	now := fixedClock()
	resolver := &mockResolver{
		lookupFn: func(ctx context.Context, name types.TrackedName) (*model.Record, error) {
			// Registered, but no target address configured
			return &model.Record{Name: name, OwnerObjectID: "obj-9", ExpiresAt: now().Add(time.Hour)}, nil
		},
		ownerFn: func(ctx context.Context, objectID string) (string, error) {
			gt.Value(t, objectID).Equal("obj-9")
			return testAddress, nil
		},
		listFn: func(ctx context.Context, address string) ([]*model.Record, error) {
			gt.Value(t, address).Equal(testAddress)
			return []*model.Record{{Name: "alice.ns", ExpiresAt: now().Add(time.Hour)}}, nil
		},
	}
	bot := usecase.NewBot(repo, resolver, gateway, usecase.WithClock(now))
	ctx := context.Background()

	armAddressWait(t, bot, "U001")
	gt.NoError(t, bot.HandleText(ctx, "U001", "alice")).Required()

	// The resolved owner is staged; listing waits for the follow-up action
	session, err := repo.Session().Get(ctx, "U001")
	gt.NoError(t, err).Required()
	gt.Value(t, session.RecentLookup).Equal(testAddress)
	gt.Bool(t, strings.Contains(gateway.last(t).text, "Found the owner")).True()

	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionSearchOwner})).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "owns 1 name(s)")).True()

	// The staged owner was consumed; pressing the button again is stale
	gt.NoError(t, bot.HandleAction(ctx, "U001", model.BotAction{ID: types.ActionSearchOwner})).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "stale")).True()
}

func TestAddressSearchRejectsGarbage(t *testing.T) {
	repo := memory.New()
	gateway := &mockGateway{}
	bot := usecase.NewBot(repo, &mockResolver{}, gateway, usecase.WithClock(fixedClock()))

	armAddressWait(t, bot, "U001")
	gt.NoError(t, bot.HandleText(context.Background(), "U001", "not a name!?")).Required()
	gt.Bool(t, strings.Contains(gateway.last(t).text, "raw address")).True()
}
