/*
Package eventsub implements the in-process event notification service of the
node.

Node subsystems subscribe to committed on-chain events and receive them in
commit order on a bounded channel of their own, the state-sync commit
pipeline drives dispatch by reporting newly committed versions. Dispatch
never blocks on a slow subscriber: enqueue attempts are non-blocking and a
full channel costs that subscriber the notification (reported to the commit
path as a BackpressureError), everyone else is served normally. A subscriber
that missed a range is expected to resync it against the ledger on its own.
*/
package eventsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meshsync/chainwatch/pkg/config"
	"github.com/meshsync/chainwatch/pkg/event"
	"github.com/meshsync/chainwatch/pkg/ledger"
)

// DefaultChannelCapacity is used when the configured subscriber channel
// capacity is zero.
const DefaultChannelCapacity = 32

// Various subscription errors.
var (
	// ErrInvalidFilter is returned on an attempt to subscribe with an
	// explicit empty key set.
	ErrInvalidFilter = errors.New("empty event key filter")
	// ErrUnknownSubscriber is returned on an attempt to unsubscribe an
	// identifier that is not registered.
	ErrUnknownSubscriber = errors.New("unknown subscriber")
)

// Service manages event subscriptions and dispatches notifications for
// committed ledger versions. All its methods are serialized, subscribers
// drain their channels at their own pace.
type Service struct {
	Config config.EventSub

	log    *zap.Logger
	ledger ledger.Reader

	lock    sync.Mutex
	subs    map[uuid.UUID]*subscription
	tracker versionTracker

	notificationID atomic.Uint64
}

// New creates a new event subscription service. The dispatched-version
// tracker is seeded from the ledger's latest synced version, so events
// committed before the service started are never replayed.
func New(cfg config.EventSub, log *zap.Logger, ldgr ledger.Reader) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if ldgr == nil {
		return nil, errors.New("ledger is required")
	}
	if cfg.ChannelCapacity == 0 {
		cfg.ChannelCapacity = DefaultChannelCapacity
	}

	base, err := ldgr.LatestSyncedVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get base version from the ledger: %w", err)
	}

	s := &Service{
		Config: cfg,
		log:    log,
		ledger: ldgr,
		subs:   make(map[uuid.UUID]*subscription),
	}
	s.tracker.Advance(base)
	log.Info("event subscription service created", zap.Uint64("base version", base))
	return s, nil
}

// Subscribe registers a new subscriber with the given filter and returns its
// identifier along with the receiving half of its notification channel.
// Subscribers registered with reconfig set to true additionally receive all
// on-chain reconfiguration events irrespective of the filter.
func (s *Service) Subscribe(filter Filter, reconfig bool) (uuid.UUID, <-chan event.Notification, error) {
	if !filter.IsValid() {
		return uuid.UUID{}, nil, ErrInvalidFilter
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	sub := &subscription{
		id:       uuid.New(),
		filter:   filter,
		reconfig: reconfig,
		ch:       make(chan event.Notification, s.Config.ChannelCapacity),
	}
	s.subs[sub.id] = sub
	updateSubscriberCountMetric(len(s.subs))
	s.log.Info("subscriber registered",
		zap.Stringer("id", sub.id),
		zap.Bool("reconfig", reconfig))
	return sub.id, sub.ch, nil
}

// Unsubscribe removes the subscriber from the registry and closes its
// channel. Notifications enqueued before the call remain readable from the
// receiving half.
func (s *Service) Unsubscribe(id uuid.UUID) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return ErrUnknownSubscriber
	}
	delete(s.subs, id)
	close(sub.ch)
	updateSubscriberCountMetric(len(s.subs))
	s.log.Info("subscriber removed", zap.Stringer("id", id))
	return nil
}

// NotifyCommitted dispatches notifications for all versions committed up to
// the given one. It is idempotent: versions at or below the already
// dispatched one are skipped, so repeated and out-of-order calls are safe.
// A ledger read failure leaves the dispatched version intact and is returned
// to the caller for a retry on the next commit. Full subscriber channels
// never fail or block the dispatch, they are aggregated into a
// *BackpressureError returned after the dispatched version has advanced.
func (s *Service) NotifyCommitted(ctx context.Context, upTo uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	last := s.tracker.Last()
	if upTo <= last {
		s.log.Debug("skipping already dispatched version",
			zap.Uint64("requested", upTo),
			zap.Uint64("dispatched", last))
		return nil
	}

	batches, err := s.ledger.EventsInRange(ctx, last, upTo)
	if err != nil {
		return fmt.Errorf("failed to read events for range (%d, %d]: %w", last, upTo, err)
	}

	var drops []Drop
	for i := range batches {
		drops = s.dispatch(&batches[i], drops)
	}

	s.tracker.Advance(upTo)
	updateLastDispatchedVersionMetric(upTo)

	if len(drops) != 0 {
		return &BackpressureError{Drops: drops}
	}
	return nil
}

// dispatch fans one version's event batch out to all matching subscribers.
// The batch is built once and iterated read-only, the only side effect per
// subscriber is the enqueue attempt.
func (s *Service) dispatch(batch *ledger.VersionEvents, drops []Drop) []Drop {
	for _, sub := range s.subs {
		matched := sub.matched(batch.Events)
		if len(matched) == 0 {
			continue
		}
		n := event.Notification{
			ID:      s.notificationID.Add(1),
			Events:  matched,
			Version: batch.Version,
		}
		if sub.trySend(n) {
			notificationsSent.Inc()
			continue
		}
		notificationsDropped.Inc()
		s.log.Warn("dropping notification for slow subscriber",
			zap.Stringer("subscriber", sub.id),
			zap.Uint64("version", batch.Version),
			zap.Int("events", len(matched)))
		drops = append(drops, Drop{Subscriber: sub.id, Version: batch.Version})
	}
	return drops
}

// LastDispatchedVersion returns the highest ledger version notifications
// have been dispatched for.
func (s *Service) LastDispatchedVersion() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.tracker.Last()
}

// Shutdown removes all subscribers closing their channels. The service can
// be used again afterwards, subscribers re-register on restart anyway.
func (s *Service) Shutdown() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.log.Info("shutting down event subscription service", zap.Int("subscribers", len(s.subs)))
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
	}
	updateSubscriberCountMetric(0)
}
