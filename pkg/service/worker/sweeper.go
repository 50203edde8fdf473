package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/interfaces"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/service/msg"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/slack-go/slack"
)

const (
	// DefaultInterval is the sweep cadence
	DefaultInterval = time.Hour
	// DefaultInitialDelay schedules one sweep shortly after process start
	DefaultInitialDelay = 15 * time.Second

	// collaboratorTimeout bounds each resolver and messaging call inside a
	// sweep so one hung call cannot stall the whole pass
	collaboratorTimeout = 15 * time.Second
)

// Sweeper runs the periodic expiry sweep: for every tracked
// (subscriber, name) pair it resolves the current expiration, walks the
// urgency ladder and delivers at most one escalation message per level
// transition.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type Sweeper struct {
	repo      interfaces.Repository
	resolver  interfaces.RecordResolver
	gateway   interfaces.MessagingGateway
	templates *model.Templates

	interval     time.Duration
	initialDelay time.Duration
	now          func() time.Time

	// sweepMu guarantees a pass never overlaps a previous still-running
	// pass; without it two slow passes could both observe "not yet
	// notified" and double-send.
	sweepMu sync.Mutex

	stopCh chan struct{}
	doneCh chan struct{}
}

// SweeperOption is a functional option for Sweeper configuration
type SweeperOption func(*Sweeper)

// WithInterval overrides the sweep cadence
func WithInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.interval = interval
	}
}

// WithInitialDelay overrides the delay before the first sweep
func WithInitialDelay(delay time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.initialDelay = delay
	}
}

// WithTemplates overrides the notification templates
func WithTemplates(t *model.Templates) SweeperOption {
	return func(s *Sweeper) {
		s.templates = t
	}
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

// NewSweeper creates the expiry sweep worker
func NewSweeper(repo interfaces.Repository, resolver interfaces.RecordResolver, gateway interfaces.MessagingGateway, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		repo:         repo,
		resolver:     resolver,
		gateway:      gateway,
		templates:    model.DefaultTemplates(),
		interval:     DefaultInterval,
		initialDelay: DefaultInitialDelay,
		now:          time.Now,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the sweep loop in a background goroutine. One delayed sweep
// runs shortly after start, then the hourly cadence takes over.
func (s *Sweeper) Start(ctx context.Context) {
	logging.From(ctx).Info("expiry sweeper starting",
		"interval", s.interval.String(),
		"initial_delay", s.initialDelay.String())

	go s.run(ctx)
}

// Stop signals the worker to stop and waits for an in-flight sweep to finish
func (s *Sweeper) Stop() {
	logging.Default().Info("expiry sweeper stopping")
	close(s.stopCh)
	<-s.doneCh
	logging.Default().Info("expiry sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneCh)

	initial := time.NewTimer(s.initialDelay)
	defer initial.Stop()

	select {
	case <-initial.C:
		s.sweepAndLog(ctx)
	case <-s.stopCh:
		return
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepAndLog(ctx)
		case <-s.stopCh:
			logging.From(ctx).Info("expiry sweeper received stop signal")
			return
		case <-ctx.Done():
			logging.From(ctx).Info("expiry sweeper context cancelled")
			return
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	if err := s.Sweep(ctx); err != nil {
		// Log and keep the worker alive; the pass is retried next tick
		logging.From(ctx).Error("sweep pass failed (will retry next interval)",
			"error", err.Error())
	}
}

// sweepStats counts what happened during one pass
type sweepStats struct {
	pairs      int
	sent       int
	skipped    int
	unresolved int
	sendFailed int
}

// Sweep performs one full pass over all tracked pairs. Lookup and send
// failures are isolated per pair; a store failure aborts the pass so it can
// be retried whole at the next tick.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if !s.sweepMu.TryLock() {
		logging.From(ctx).Warn("previous sweep still running, skipping this tick")
		return nil
	}
	defer s.sweepMu.Unlock()

	started := s.now()
	logger := logging.From(ctx)
	logger.Info("starting expiry sweep")

	trackers, err := s.repo.Tracking().ListAllTrackers(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to snapshot trackers")
	}

	// Names shared by several subscribers resolve once per pass
	cache := make(map[types.TrackedName]*model.Record)
	failed := make(map[types.TrackedName]struct{})

	var stats sweepStats
	for subscriber, names := range trackers {
		for _, name := range names {
			select {
			case <-ctx.Done():
				return goerr.Wrap(ctx.Err(), "sweep cancelled")
			default:
			}

			stats.pairs++
			if err := s.sweepPair(ctx, subscriber, name, cache, failed, &stats); err != nil {
				return goerr.Wrap(err, "sweep aborted",
					goerr.V("subscriber", subscriber), goerr.V("name", name))
			}
		}
	}

	logger.Info("expiry sweep completed",
		"pairs", stats.pairs,
		"sent", stats.sent,
		"skipped", stats.skipped,
		"unresolved", stats.unresolved,
		"send_failed", stats.sendFailed,
		"duration", time.Since(started).String())
	return nil
}

// sweepPair handles one (subscriber, name) pair. It returns an error only
// for store failures, which abort the pass; everything else is contained.
func (s *Sweeper) sweepPair(ctx context.Context, subscriber types.SubscriberID, name types.TrackedName, cache map[types.TrackedName]*model.Record, failed map[types.TrackedName]struct{}, stats *sweepStats) error {
	logger := logging.From(ctx)

	record, ok := s.resolve(ctx, name, cache, failed)
	if !ok {
		stats.unresolved++
		return nil
	}

	daysLeft := record.DaysLeft(s.now())
	level, due := types.LevelForDays(daysLeft)
	if !due {
		stats.skipped++
		return nil
	}

	prior, hasPrior, err := s.repo.Notification().GetNotifiedLevel(ctx, subscriber, name)
	if err != nil {
		return err
	}

	// Strict escalation only: re-entry at the same or a lower level never
	// re-notifies.
	if hasPrior && level.Priority() <= prior.Priority() {
		stats.skipped++
		return nil
	}

	if err := s.notify(ctx, subscriber, record, level, daysLeft); err != nil {
		if errors.Is(err, model.ErrStoreUnavailable) {
			return err
		}
		// Delivery failed: leave notification state untouched so the next
		// sweep retries the send.
		stats.sendFailed++
		logger.Warn("failed to deliver escalation notice",
			"subscriber", subscriber, "name", name, "level", level.String(), "error", err.Error())
		return nil
	}

	if err := s.repo.Notification().SetNotifiedLevel(ctx, subscriber, name, level); err != nil {
		return err
	}

	stats.sent++
	logger.Info("escalation notice sent",
		"subscriber", subscriber, "name", name, "level", level.String(), "days_left", daysLeft)
	return nil
}

// resolve fetches a record through the per-pass cache. A failed name is
// remembered so other subscribers of the same name don't retrigger the call.
func (s *Sweeper) resolve(ctx context.Context, name types.TrackedName, cache map[types.TrackedName]*model.Record, failed map[types.TrackedName]struct{}) (*model.Record, bool) {
	if record, ok := cache[name]; ok {
		return record, record != nil
	}
	if _, bad := failed[name]; bad {
		return nil, false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	record, err := s.resolver.LookupByName(lookupCtx, name)
	cancel()
	if err != nil {
		failed[name] = struct{}{}
		logging.From(ctx).Debug("lookup failed during sweep, skipping pair",
			"name", name, "error", err.Error())
		return nil, false
	}

	cache[name] = record
	return record, record != nil
}

// notify renders the tier message and delivers it with unsubscribe and
// list actions attached
func (s *Sweeper) notify(ctx context.Context, subscriber types.SubscriberID, record *model.Record, level types.UrgencyLevel, daysLeft int) error {
	text, err := s.templates.RenderNotice(level, record.Name, daysLeft, record.ExpiresAt)
	if err != nil {
		return err
	}

	blocks := []slack.Block{
		msg.Section(text),
		msg.Actions(
			msg.Button(types.ActionUntrackName, record.Name.String(), "Stop tracking"),
			msg.Button(types.ActionShowTrackers, "", "Show my list"),
		),
	}

	sendCtx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.gateway.SendBlocks(sendCtx, subscriber, text, blocks)
}
