package eventsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/meshsync/chainwatch/pkg/config"
	"github.com/meshsync/chainwatch/pkg/event"
	"github.com/meshsync/chainwatch/pkg/ledger"
	"github.com/meshsync/chainwatch/pkg/storage"
)

func testKey(n uint8) event.Key {
	return event.NewKey([32]uint8{0: n}, uint64(n))
}

func newTestService(t *testing.T, capacity int) (*Service, *ledger.EventStore) {
	store := ledger.NewEventStore(storage.NewMemoryStore())
	t.Cleanup(func() { store.Close() })

	svc, err := New(config.EventSub{ChannelCapacity: capacity}, zaptest.NewLogger(t), store)
	require.NoError(t, err)
	return svc, store
}

func receive(t *testing.T, ch <-chan event.Notification) event.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "channel is closed")
		return n
	default:
		t.Fatal("expected a notification")
	}
	return event.Notification{}
}

func requireNone(t *testing.T, ch <-chan event.Notification) {
	t.Helper()
	require.Equal(t, 0, len(ch))
}

func TestNew(t *testing.T) {
	store := ledger.NewEventStore(storage.NewMemoryStore())
	t.Cleanup(func() { store.Close() })

	_, err := New(config.EventSub{}, nil, store)
	require.Error(t, err)
	_, err = New(config.EventSub{}, zaptest.NewLogger(t), nil)
	require.Error(t, err)

	require.NoError(t, store.Append(42, nil))
	svc, err := New(config.EventSub{}, zaptest.NewLogger(t), store)
	require.NoError(t, err)
	require.Equal(t, uint64(42), svc.LastDispatchedVersion())
	require.Equal(t, DefaultChannelCapacity, svc.Config.ChannelCapacity)
}

func TestSubscribe(t *testing.T) {
	svc, _ := newTestService(t, 4)

	t.Run("empty filter", func(t *testing.T) {
		_, _, err := svc.Subscribe(NewFilter(), false)
		require.ErrorIs(t, err, ErrInvalidFilter)
		_, _, err = svc.Subscribe(Filter{}, true)
		require.ErrorIs(t, err, ErrInvalidFilter)
	})

	t.Run("valid filters", func(t *testing.T) {
		id1, ch1, err := svc.Subscribe(AllEvents(), false)
		require.NoError(t, err)
		require.NotNil(t, ch1)

		id2, ch2, err := svc.Subscribe(NewFilter(testKey(1)), true)
		require.NoError(t, err)
		require.NotNil(t, ch2)
		require.NotEqual(t, id1, id2)
	})
}

func TestUnsubscribe(t *testing.T) {
	svc, store := newTestService(t, 4)

	t.Run("unknown subscriber", func(t *testing.T) {
		id, _, err := svc.Subscribe(AllEvents(), false)
		require.NoError(t, err)
		require.NoError(t, svc.Unsubscribe(id))
		require.ErrorIs(t, svc.Unsubscribe(id), ErrUnknownSubscriber)
	})

	t.Run("enqueued notifications survive removal", func(t *testing.T) {
		id, ch, err := svc.Subscribe(AllEvents(), false)
		require.NoError(t, err)

		require.NoError(t, store.Append(1, []event.Event{event.New(testKey(1), 0, 1, nil)}))
		require.NoError(t, svc.NotifyCommitted(context.Background(), 1))
		require.NoError(t, svc.Unsubscribe(id))

		n, ok := <-ch
		require.True(t, ok)
		require.Equal(t, uint64(1), n.Version)
		_, ok = <-ch
		require.False(t, ok, "channel must be closed after draining")
	})
}

func TestNotifyCommittedFiltering(t *testing.T) {
	svc, store := newTestService(t, 4)

	var (
		keyA = testKey(0xa)
		keyB = testKey(0xb)
	)
	_, ch1, err := svc.Subscribe(NewFilter(keyA), false)
	require.NoError(t, err)
	_, ch2, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)

	evs := []event.Event{
		event.New(keyA, 1, 10, []byte{1}),
		event.New(keyB, 2, 10, []byte{2}),
	}
	require.NoError(t, store.Append(10, evs))
	require.NoError(t, svc.NotifyCommitted(context.Background(), 10))

	n1 := receive(t, ch1)
	require.Equal(t, uint64(10), n1.Version)
	require.Equal(t, []event.Event{evs[0]}, n1.Events)

	n2 := receive(t, ch2)
	require.Equal(t, uint64(10), n2.Version)
	require.Equal(t, evs, n2.Events)

	requireNone(t, ch1)
	requireNone(t, ch2)
}

func TestNotifyCommittedIdempotent(t *testing.T) {
	svc, store := newTestService(t, 4)

	_, ch, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)

	require.NoError(t, store.Append(3, []event.Event{event.New(testKey(1), 0, 3, nil)}))
	require.NoError(t, svc.NotifyCommitted(context.Background(), 3))
	receive(t, ch)

	// Repeated and out-of-order calls produce nothing new.
	require.NoError(t, svc.NotifyCommitted(context.Background(), 3))
	require.NoError(t, svc.NotifyCommitted(context.Background(), 1))
	requireNone(t, ch)
	require.Equal(t, uint64(3), svc.LastDispatchedVersion())
}

func TestNotifyCommittedOrdering(t *testing.T) {
	svc, store := newTestService(t, 16)

	_, ch, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)

	key := testKey(1)
	for v := uint64(1); v <= 5; v++ {
		require.NoError(t, store.Append(v, []event.Event{event.New(key, v-1, v, nil)}))
	}
	// Two versions in one call, the rest one by one.
	require.NoError(t, svc.NotifyCommitted(context.Background(), 2))
	for v := uint64(3); v <= 5; v++ {
		require.NoError(t, svc.NotifyCommitted(context.Background(), v))
	}

	var prev event.Notification
	for v := uint64(1); v <= 5; v++ {
		n := receive(t, ch)
		require.Equal(t, v, n.Version)
		require.Equal(t, v-1, n.Events[0].SequenceNumber)
		if v > 1 {
			require.Greater(t, n.ID, prev.ID)
		}
		prev = n
	}
	requireNone(t, ch)
}

func TestReconfigBroadcast(t *testing.T) {
	svc, store := newTestService(t, 4)

	keyA := testKey(0xa)
	_, chReconfig, err := svc.Subscribe(NewFilter(keyA), true)
	require.NoError(t, err)
	_, chPlain, err := svc.Subscribe(NewFilter(keyA), false)
	require.NoError(t, err)

	reconfigEvent := event.New(event.NewEpochKey(), 3, 11, []byte("epoch"))
	require.NoError(t, store.Append(11, []event.Event{reconfigEvent}))
	require.NoError(t, svc.NotifyCommitted(context.Background(), 11))

	n := receive(t, chReconfig)
	require.Equal(t, []event.Event{reconfigEvent}, n.Events)
	requireNone(t, chPlain)

	t.Run("regular filter still applies", func(t *testing.T) {
		evs := []event.Event{
			event.New(keyA, 0, 12, nil),
			event.New(event.NewEpochKey(), 4, 12, nil),
		}
		require.NoError(t, store.Append(12, evs))
		require.NoError(t, svc.NotifyCommitted(context.Background(), 12))

		n := receive(t, chReconfig)
		require.Equal(t, evs, n.Events)

		n = receive(t, chPlain)
		require.Equal(t, []event.Event{evs[0]}, n.Events)
	})
}

func TestBackpressureIsolation(t *testing.T) {
	svc, store := newTestService(t, 1)

	var (
		keyA = testKey(0xa)
		keyB = testKey(0xb)
	)
	idA, chA, err := svc.Subscribe(NewFilter(keyA), false)
	require.NoError(t, err)
	_, chB, err := svc.Subscribe(NewFilter(keyB), false)
	require.NoError(t, err)

	require.NoError(t, store.Append(1, []event.Event{event.New(keyA, 0, 1, nil)}))
	require.NoError(t, store.Append(2, []event.Event{
		event.New(keyA, 1, 2, nil),
		event.New(keyB, 0, 2, nil),
	}))

	err = svc.NotifyCommitted(context.Background(), 2)
	var bpErr *BackpressureError
	require.ErrorAs(t, err, &bpErr)
	require.Equal(t, []Drop{{Subscriber: idA, Version: 2}}, bpErr.Drops)

	// The tracker advanced regardless of the drop.
	require.Equal(t, uint64(2), svc.LastDispatchedVersion())

	// A kept its version 1 notification, B got version 2 normally.
	require.Equal(t, uint64(1), receive(t, chA).Version)
	require.Equal(t, uint64(2), receive(t, chB).Version)
	requireNone(t, chA)
}

func TestUnsubscribedNeverTargeted(t *testing.T) {
	svc, store := newTestService(t, 4)

	idA, chA, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)
	_, chB, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)

	require.NoError(t, store.Append(1, []event.Event{event.New(testKey(1), 0, 1, nil)}))
	require.NoError(t, svc.NotifyCommitted(context.Background(), 1))
	require.NoError(t, svc.Unsubscribe(idA))

	// Dispatch to a removed subscriber would panic on its closed channel.
	require.NoError(t, store.Append(2, []event.Event{event.New(testKey(1), 1, 2, nil)}))
	require.NotPanics(t, func() {
		require.NoError(t, svc.NotifyCommitted(context.Background(), 2))
	})

	require.Equal(t, uint64(1), receive(t, chA).Version)
	_, ok := <-chA
	require.False(t, ok)

	require.Equal(t, uint64(1), receive(t, chB).Version)
	require.Equal(t, uint64(2), receive(t, chB).Version)
}

type flakyLedger struct {
	base    uint64
	healthy bool
	ldgr    *ledger.EventStore
}

func (f *flakyLedger) EventsInRange(ctx context.Context, fromExclusive uint64, toInclusive uint64) ([]ledger.VersionEvents, error) {
	if !f.healthy {
		return nil, errors.New("backing store is unavailable")
	}
	return f.ldgr.EventsInRange(ctx, fromExclusive, toInclusive)
}

func (f *flakyLedger) LatestSyncedVersion() (uint64, error) {
	return f.base, nil
}

func TestLedgerReadFailure(t *testing.T) {
	store := ledger.NewEventStore(storage.NewMemoryStore())
	t.Cleanup(func() { store.Close() })
	flaky := &flakyLedger{ldgr: store}

	svc, err := New(config.EventSub{ChannelCapacity: 4}, zaptest.NewLogger(t), flaky)
	require.NoError(t, err)

	_, ch, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)

	require.NoError(t, store.Append(1, []event.Event{event.New(testKey(1), 0, 1, nil)}))
	require.Error(t, svc.NotifyCommitted(context.Background(), 1))
	require.Equal(t, uint64(0), svc.LastDispatchedVersion())
	requireNone(t, ch)

	// The same range is retried once the ledger recovers.
	flaky.healthy = true
	require.NoError(t, svc.NotifyCommitted(context.Background(), 1))
	require.Equal(t, uint64(1), svc.LastDispatchedVersion())
	require.Equal(t, uint64(1), receive(t, ch).Version)
}

func TestNoReplayAfterRestart(t *testing.T) {
	store := ledger.NewEventStore(storage.NewMemoryStore())
	t.Cleanup(func() { store.Close() })

	for v := uint64(1); v <= 3; v++ {
		require.NoError(t, store.Append(v, []event.Event{event.New(testKey(1), v-1, v, nil)}))
	}

	// A restarted service starts from the synced version, events committed
	// before it came up are not replayed.
	svc, err := New(config.EventSub{ChannelCapacity: 4}, zaptest.NewLogger(t), store)
	require.NoError(t, err)

	_, ch, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)
	require.NoError(t, svc.NotifyCommitted(context.Background(), 3))
	requireNone(t, ch)

	require.NoError(t, store.Append(4, []event.Event{event.New(testKey(1), 3, 4, nil)}))
	require.NoError(t, svc.NotifyCommitted(context.Background(), 4))
	require.Equal(t, uint64(4), receive(t, ch).Version)
}

func TestShutdown(t *testing.T) {
	svc, store := newTestService(t, 4)

	_, ch1, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)
	_, ch2, err := svc.Subscribe(NewFilter(testKey(1)), true)
	require.NoError(t, err)

	svc.Shutdown()
	_, ok := <-ch1
	require.False(t, ok)
	_, ok = <-ch2
	require.False(t, ok)

	// The service is still usable, subscribers re-register.
	_, ch3, err := svc.Subscribe(AllEvents(), false)
	require.NoError(t, err)
	require.NoError(t, store.Append(1, []event.Event{event.New(testKey(1), 0, 1, nil)}))
	require.NoError(t, svc.NotifyCommitted(context.Background(), 1))
	require.Equal(t, uint64(1), receive(t, ch3).Version)
}
