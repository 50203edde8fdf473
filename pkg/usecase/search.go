package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/service/msg"
	"github.com/slack-go/slack"
)

// handleNameInput consumes free-form input from the name search flow
func (b *Bot) handleNameInput(ctx context.Context, subscriber types.SubscriberID, text string) error {
	name := types.NormalizeName(text, b.nameSuffix)
	if err := name.Validate(); err != nil {
		return b.sendText(ctx, subscriber,
			"That doesn't look like a name I can check. Try something like `alice` or `alice."+b.nameSuffix+"`.")
	}

	record, err := b.lookup(ctx, name)
	if err != nil {
		return err
	}
	if record == nil {
		return b.sendText(ctx, subscriber,
			fmt.Sprintf("*%s* isn't registered. It's available if you want it.", name))
	}

	session, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return err
	}
	if err := b.repo.Session().Put(ctx, subscriber, session.WithPendingTrack(record)); err != nil {
		return err
	}

	daysLeft := record.DaysLeft(b.now())
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s* is registered.\n", record.Name)
	fmt.Fprintf(&sb, "• Expires: %s (%s)\n", record.ExpiresAt.UTC().Format("2006-01-02"), describeDays(daysLeft))
	if record.TargetAddress != "" {
		fmt.Fprintf(&sb, "• Points to: `%s`\n", record.TargetAddress)
	} else {
		sb.WriteString("• Points to: nothing configured\n")
	}
	if record.OwnerObjectID != "" {
		fmt.Fprintf(&sb, "• Owner object: `%s`\n", record.OwnerObjectID)
	}

	blocks := []slack.Block{
		msg.Section(sb.String()),
		msg.Actions(
			msg.Button(types.ActionConfirmTrack, record.Name.String(), "Track this"),
			msg.Button(types.ActionRestart, "", "Start over"),
		),
	}
	return b.send(ctx, subscriber, fmt.Sprintf("%s is registered.", record.Name), blocks)
}

// handleAddressInput consumes free-form input from the address search flow:
// a raw address lists everything it owns; a name reference is resolved down
// to its target or owner first.
func (b *Bot) handleAddressInput(ctx context.Context, subscriber types.SubscriberID, text string) error {
	if types.IsAddress(text) {
		return b.renderOwnedNames(ctx, subscriber, types.NormalizeAddress(text))
	}

	name := types.NormalizeName(text, b.nameSuffix)
	if err := name.Validate(); err != nil {
		return b.sendText(ctx, subscriber,
			"I need a raw address (`0x` + 64 hex digits) or a name like `@alice`.")
	}

	record, err := b.lookup(ctx, name)
	if err != nil {
		return err
	}
	if record == nil {
		return b.sendText(ctx, subscriber,
			fmt.Sprintf("*%s* isn't registered, so there's nothing to list.", name))
	}

	if record.TargetAddress != "" {
		return b.renderOwnedNames(ctx, subscriber, record.TargetAddress)
	}

	// No configured target: fall back to the owning address, which needs a
	// separate resolution step and the subscriber's go-ahead.
	if record.OwnerObjectID == "" {
		return b.sendText(ctx, subscriber,
			fmt.Sprintf("*%s* is registered but has no address on file.", name))
	}

	lookupCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	owner, err := b.resolver.ResolveOwner(lookupCtx, record.OwnerObjectID)
	cancel()
	if err != nil {
		return goerr.Wrap(err, "failed to resolve owner", goerr.V("name", name))
	}
	if owner == "" {
		return b.sendText(ctx, subscriber,
			fmt.Sprintf("*%s* is registered but I couldn't find its owner.", name))
	}

	session, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return err
	}
	if err := b.repo.Session().Put(ctx, subscriber, session.WithRecentLookup(owner)); err != nil {
		return err
	}

	blocks := []slack.Block{
		msg.Section(fmt.Sprintf("*%s* has no target address, but it's owned by `%s`.", name, owner)),
		msg.Actions(
			msg.Button(types.ActionSearchOwner, "", "Search this owner's names"),
			msg.Button(types.ActionRestart, "", "Start over"),
		),
	}
	return b.send(ctx, subscriber, "Found the owner.", blocks)
}

// searchOwner lists the names owned by the address staged by the last lookup
func (b *Bot) searchOwner(ctx context.Context, subscriber types.SubscriberID) error {
	session, err := b.repo.Session().Get(ctx, subscriber)
	if err != nil {
		return err
	}

	session, owner := session.ConsumeRecentLookup()
	if owner == "" {
		return b.sendText(ctx, subscriber,
			"That button has gone stale. Run the search again and I'll take it from the top.")
	}
	if err := b.repo.Session().Put(ctx, subscriber, session); err != nil {
		return err
	}

	return b.renderOwnedNames(ctx, subscriber, owner)
}

// renderOwnedNames drains every page of names owned by the address and
// renders a summary sorted by expiration, soonest first.
func (b *Bot) renderOwnedNames(ctx context.Context, subscriber types.SubscriberID, address string) error {
	listCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	records, err := b.resolver.ListOwnedNames(listCtx, address)
	cancel()
	if err != nil {
		return goerr.Wrap(err, "failed to list owned names", goerr.V("address", address))
	}

	if len(records) == 0 {
		return b.sendText(ctx, subscriber,
			fmt.Sprintf("`%s` doesn't own any names.", address))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ExpiresAt.Before(records[j].ExpiresAt)
	})

	now := b.now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s` owns %d name(s):\n", address, len(records))
	for _, record := range records {
		fmt.Fprintf(&sb, "• *%s* — expires %s (%s)\n",
			record.Name, record.ExpiresAt.UTC().Format("2006-01-02"), describeDays(record.DaysLeft(now)))
	}

	blocks := []slack.Block{
		msg.Section(sb.String()),
		msg.Actions(
			msg.Button(types.ActionSearchByName, "", "Look up a name"),
			msg.Button(types.ActionRestart, "", "Start over"),
		),
	}
	return b.send(ctx, subscriber, fmt.Sprintf("%s owns %d name(s).", address, len(records)), blocks)
}

// lookup resolves one name under the collaborator timeout
func (b *Bot) lookup(ctx context.Context, name types.TrackedName) (*model.Record, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()

	record, err := b.resolver.LookupByName(lookupCtx, name)
	if err != nil {
		return nil, goerr.Wrap(err, "name lookup failed", goerr.V("name", name))
	}
	return record, nil
}

// describeDays renders daysLeft for humans
func describeDays(daysLeft int) string {
	switch {
	case daysLeft < 0:
		return "expired"
	case daysLeft == 0:
		return "expires today"
	case daysLeft == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", daysLeft)
	}
}
