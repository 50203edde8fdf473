package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/service/msg"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"
)

// listResolveLimit bounds concurrent resolver calls while rendering a list
const listResolveLimit = 4

// showTrackers renders the subscriber's tracked names with days left and a
// derived "next notice due" estimate, then snapshots the rendered order into
// the session so positional untrack buttons stay resolvable.
func (b *Bot) showTrackers(ctx context.Context, subscriber types.SubscriberID) error {
	names, err := b.repo.Tracking().ListTracked(ctx, subscriber)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		blocks := []slack.Block{
			msg.Section("You're not tracking anything yet. Look up a name and I'll offer to watch it."),
			b.entryActions(),
		}
		return b.send(ctx, subscriber, "No tracked names yet.", blocks)
	}

	statuses, err := b.collectStatuses(ctx, subscriber, names)
	if err != nil {
		return err
	}

	session, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return err
	}
	ordered := make([]types.TrackedName, len(statuses))
	for i, st := range statuses {
		ordered[i] = st.Name
	}
	if err := b.repo.Session().Put(ctx, subscriber, session.WithListed(ordered)); err != nil {
		return err
	}

	blocks := make([]slack.Block, 0, len(statuses)+2)
	blocks = append(blocks, msg.Section(fmt.Sprintf("You're tracking %d name(s):", len(statuses))))
	for i, st := range statuses {
		blocks = append(blocks, msg.SectionWithButton(
			renderStatusLine(i+1, st),
			msg.Button(types.ActionUntrackIndex, strconv.Itoa(i+1), fmt.Sprintf("Stop #%d", i+1)),
		))
	}
	blocks = append(blocks, msg.Actions(
		msg.Button(types.ActionSearchByName, "", "Look up a name"),
		msg.Button(types.ActionRestart, "", "Start over"),
		msg.DangerButton(types.ActionEraseData, "", "Erase my data"),
	))

	return b.send(ctx, subscriber, fmt.Sprintf("Tracking %d name(s).", len(statuses)), blocks)
}

// collectStatuses resolves every tracked name and annotates it with the
// last-notified level and next-notice estimate. Resolution failures mark the
// row unresolved instead of failing the whole rendering. The returned order
// matches the store's (sorted), so positional snapshots are stable.
func (b *Bot) collectStatuses(ctx context.Context, subscriber types.SubscriberID, names []types.TrackedName) ([]model.TrackedStatus, error) {
	statuses := make([]model.TrackedStatus, len(names))
	now := b.now()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(listResolveLimit)

	for i, name := range names {
		eg.Go(func() error {
			status := model.TrackedStatus{Name: name}

			record, err := b.lookupFrom(egCtx, name)
			if err != nil || record == nil {
				if err != nil {
					logging.From(egCtx).Warn("failed to resolve tracked name for listing",
						"name", name, "error", err.Error())
				}
				status.Unresolved = true
				statuses[i] = status
				return nil
			}

			status.ExpiresAt = record.ExpiresAt
			status.DaysLeft = record.DaysLeft(now)

			level, hasLevel, err := b.repo.Notification().GetNotifiedLevel(egCtx, subscriber, name)
			if err != nil {
				return err
			}
			status.NotifiedLevel = level
			status.HasNotified = hasLevel
			status.NextNotice, status.HasNextNotice = model.NextNoticeLevel(status.DaysLeft, level, hasLevel)

			statuses[i] = status
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// lookupFrom is lookup with the errgroup's context
func (b *Bot) lookupFrom(ctx context.Context, name types.TrackedName) (*model.Record, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return b.resolver.LookupByName(lookupCtx, name)
}

func renderStatusLine(position int, st model.TrackedStatus) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. *%s*", position, st.Name)

	if st.Unresolved {
		sb.WriteString(" — couldn't check right now")
		return sb.String()
	}

	fmt.Fprintf(&sb, " — %s (%s)", describeDays(st.DaysLeft), st.ExpiresAt.UTC().Format("2006-01-02"))
	if st.HasNextNotice {
		fmt.Fprintf(&sb, " — next ping at the %s mark", st.NextNotice)
	} else if st.HasNotified {
		fmt.Fprintf(&sb, " — last ping: %s", st.NotifiedLevel)
	}
	return sb.String()
}

// Stats summarizes the store for the stats command: how many subscribers and
// how many distinct names are being watched.
func (b *Bot) Stats(ctx context.Context) (string, error) {
	trackers, err := b.repo.Tracking().ListAllTrackers(ctx)
	if err != nil {
		return "", err
	}
	names, err := b.repo.Tracking().ListTrackedNames(ctx)
	if err != nil {
		return "", err
	}

	pairs := 0
	for _, tracked := range trackers {
		pairs += len(tracked)
	}
	return fmt.Sprintf("%d subscriber(s) watching %d distinct name(s) (%d pairs).",
		len(trackers), len(names), pairs), nil
}
