package usecase

import (
	"context"
	"fmt"

	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
)

// confirmTrack subscribes the subscriber to the record staged by the last
// name lookup. Without a staged record the action is stale and fails with a
// notice only; no store mutation happens.
func (b *Bot) confirmTrack(ctx context.Context, subscriber types.SubscriberID) error {
	session, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return err
	}

	session, record := session.ConsumePendingTrack()
	if record == nil || record.Name == "" {
		return b.sendText(ctx, subscriber,
			"That button has gone stale. Look the name up again and I'll offer tracking afresh.")
	}

	added, err := b.repo.Tracking().Track(ctx, subscriber, record.Name)
	if err != nil {
		return err
	}
	if err := b.repo.Session().Put(ctx, subscriber, session); err != nil {
		return err
	}

	if !added {
		return b.sendText(ctx, subscriber,
			fmt.Sprintf("You're already tracking *%s*.", record.Name))
	}
	return b.sendText(ctx, subscriber,
		fmt.Sprintf("Now tracking *%s*. I'll ping you 30, 14, 3 and 1 days before it expires, and once it has.", record.Name))
}

// untrackByIndex resolves a positional "stop tracking item k" action against
// the snapshot taken at the last list rendering.
func (b *Bot) untrackByIndex(ctx context.Context, subscriber types.SubscriberID, index int) error {
	session, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return err
	}

	name, ok := session.ListedAt(index)
	if !ok {
		return b.sendText(ctx, subscriber,
			"That list has gone stale. Show your trackers again and use the fresh buttons.")
	}

	removed, err := b.repo.Tracking().Untrack(ctx, subscriber, name)
	if err != nil {
		return err
	}
	if !removed {
		return b.sendText(ctx, subscriber,
			fmt.Sprintf("You weren't tracking *%s* anymore.", name))
	}
	return b.sendText(ctx, subscriber, fmt.Sprintf("Stopped tracking *%s*.", name))
}

// untrackByName handles the direct unsubscribe action carried on
// notification messages. It also clears the pair's notification history so a
// future re-track starts the ladder fresh.
func (b *Bot) untrackByName(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName) error {
	removed, err := b.repo.Tracking().Untrack(ctx, subscriber, name)
	if err != nil {
		return err
	}
	if err := b.repo.Notification().ClearNotifiedLevel(ctx, subscriber, name); err != nil {
		return err
	}

	if !removed {
		return b.sendText(ctx, subscriber,
			fmt.Sprintf("You weren't tracking *%s* anymore.", name))
	}
	return b.sendText(ctx, subscriber, fmt.Sprintf("Stopped tracking *%s*. No more pings for it.", name))
}

// eraseData removes everything stored for the subscriber. Erasing zero items
// succeeds too.
func (b *Bot) eraseData(ctx context.Context, subscriber types.SubscriberID) error {
	removed, err := b.repo.Tracking().EraseAll(ctx, subscriber)
	if err != nil {
		return err
	}
	if err := b.repo.Session().Put(ctx, subscriber, model.Session{}); err != nil {
		return err
	}

	logging.From(ctx).Info("erased subscriber data",
		"subscriber", subscriber, "removed", removed)

	if removed == 0 {
		return b.sendText(ctx, subscriber, "Nothing was stored for you. You're all clear.")
	}
	return b.sendText(ctx, subscriber,
		fmt.Sprintf("Removed your data, including %d tracked name(s). Goodbye!", removed))
}
