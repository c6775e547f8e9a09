/*
Package ledger provides read access to committed on-chain events.

It is the storage-side collaborator of the event subscription service: the
state-sync pipeline appends per-version event batches as transactions are
committed and the subscription service reads them back by version range when
dispatching notifications.
*/
package ledger

import (
	"context"
	"errors"

	"github.com/meshsync/chainwatch/pkg/event"
)

// VersionEvents is a batch of events committed at a single ledger version,
// ordered by on-chain sequence.
type VersionEvents struct {
	Version uint64
	Events  []event.Event
}

// Reader provides access to committed events by version range.
type Reader interface {
	// EventsInRange returns per-version event batches for the
	// (fromExclusive, toInclusive] range in ascending version order.
	// Versions without events are not represented in the result.
	EventsInRange(ctx context.Context, fromExclusive uint64, toInclusive uint64) ([]VersionEvents, error)
	// LatestSyncedVersion returns the highest committed ledger version.
	LatestSyncedVersion() (uint64, error)
}

// ErrFutureVersion is returned when a range read reaches past the latest
// synced version.
var ErrFutureVersion = errors.New("version is not synced yet")

// ErrInvalidRange is returned for ranges with the upper bound not above the
// lower one.
var ErrInvalidRange = errors.New("invalid version range")
