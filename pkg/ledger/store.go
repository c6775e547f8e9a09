package ledger

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/meshsync/chainwatch/pkg/event"
	"github.com/meshsync/chainwatch/pkg/io"
	"github.com/meshsync/chainwatch/pkg/storage"
)

// batchCacheSize covers resync reads of recently dispatched versions without
// touching the backing store.
const batchCacheSize = 256

// EventStore is a Store-backed event ledger. It implements Reader and is
// safe for concurrent use: the commit pipeline appends while the
// subscription service and resyncing subscribers read.
type EventStore struct {
	dao   storage.Store
	cache *lru.Cache
}

// NewEventStore wraps the given Store into an event ledger.
func NewEventStore(dao storage.Store) *EventStore {
	cache, _ := lru.New(batchCacheSize) // Never errors for positive size.
	return &EventStore{
		dao:   dao,
		cache: cache,
	}
}

// versionKey is DataEvent prefix followed by a big-endian version, so that
// Seek order matches commit order.
func versionKey(version uint64) []byte {
	var suffix [8]byte
	binary.BigEndian.PutUint64(suffix[:], version)
	return storage.AppendPrefix(storage.DataEvent, suffix[:])
}

// Append stores the events of one committed version and advances the synced
// version to it. Versions must be appended in increasing order.
func (s *EventStore) Append(version uint64, events []event.Event) error {
	synced, err := s.LatestSyncedVersion()
	if err != nil {
		return err
	}
	if version <= synced {
		return fmt.Errorf("climbing down from version %d to %d", synced, version)
	}

	puts := make(map[string][]byte, 2)
	if len(events) != 0 {
		buf := new(bytes.Buffer)
		w := io.NewBinWriterFromIO(buf)
		io.WriteArray(w, events)
		if w.Err != nil {
			return w.Err
		}
		puts[string(versionKey(version))] = buf.Bytes()
	}
	var sv [8]byte
	binary.BigEndian.PutUint64(sv[:], version)
	puts[string(storage.SYSSyncedVersion.Bytes())] = sv[:]

	if err := s.dao.PutChangeSet(puts); err != nil {
		return err
	}
	s.cache.Add(version, events)
	return nil
}

// LatestSyncedVersion implements the Reader interface. A fresh store reports
// version 0.
func (s *EventStore) LatestSyncedVersion() (uint64, error) {
	val, err := s.dao.Get(storage.SYSSyncedVersion.Bytes())
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("malformed synced version entry of size %d", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

// EventsInRange implements the Reader interface.
func (s *EventStore) EventsInRange(ctx context.Context, fromExclusive uint64, toInclusive uint64) ([]VersionEvents, error) {
	if toInclusive <= fromExclusive {
		return nil, fmt.Errorf("%w: (%d, %d]", ErrInvalidRange, fromExclusive, toInclusive)
	}
	synced, err := s.LatestSyncedVersion()
	if err != nil {
		return nil, err
	}
	if toInclusive > synced {
		return nil, fmt.Errorf("%w: %d is above synced %d", ErrFutureVersion, toInclusive, synced)
	}

	var res []VersionEvents
	// Narrow ranges are served from the cache most of the time.
	if toInclusive-fromExclusive <= batchCacheSize {
		res, err = s.rangeFromCache(fromExclusive, toInclusive)
		if err == nil {
			return res, nil
		}
	}
	return s.rangeFromStore(ctx, fromExclusive, toInclusive)
}

// errCacheMiss makes rangeFromCache fall back to the store scan.
var errCacheMiss = errors.New("cache miss")

func (s *EventStore) rangeFromCache(fromExclusive uint64, toInclusive uint64) ([]VersionEvents, error) {
	var res []VersionEvents
	for v := fromExclusive + 1; v <= toInclusive; v++ {
		cached, ok := s.cache.Get(v)
		if !ok {
			return nil, errCacheMiss
		}
		events := cached.([]event.Event)
		if len(events) != 0 {
			res = append(res, VersionEvents{Version: v, Events: events})
		}
	}
	return res, nil
}

func (s *EventStore) rangeFromStore(ctx context.Context, fromExclusive uint64, toInclusive uint64) ([]VersionEvents, error) {
	var (
		res     []VersionEvents
		start   [8]byte
		readErr error
	)
	binary.BigEndian.PutUint64(start[:], fromExclusive+1)
	s.dao.Seek(storage.SeekRange{
		Prefix: storage.DataEvent.Bytes(),
		Start:  start[:],
	}, func(k, v []byte) bool {
		if ctx.Err() != nil {
			readErr = ctx.Err()
			return false
		}
		if len(k) != 9 {
			readErr = fmt.Errorf("malformed event batch key of size %d", len(k))
			return false
		}
		version := binary.BigEndian.Uint64(k[1:])
		if version > toInclusive {
			return false
		}
		var events []event.Event
		r := io.NewBinReaderFromBuf(v)
		io.ReadArray(r, &events)
		if r.Err != nil {
			readErr = fmt.Errorf("failed to decode event batch for version %d: %w", version, r.Err)
			return false
		}
		res = append(res, VersionEvents{Version: version, Events: events})
		s.cache.Add(version, events)
		return true
	})
	if readErr != nil {
		return nil, readErr
	}
	return res, nil
}

// Close closes the backing store.
func (s *EventStore) Close() error {
	return s.dao.Close()
}
