package eventsub

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Drop describes one notification lost to a full subscriber channel.
type Drop struct {
	// Subscriber is the affected subscription.
	Subscriber uuid.UUID
	// Version is the ledger version the dropped notification was built for.
	Version uint64
}

// BackpressureError aggregates all notifications dropped during one
// NotifyCommitted call. It is diagnostic: the version tracker has advanced
// and all other subscribers were served, affected subscribers have to resync
// the missed range against the ledger themselves.
type BackpressureError struct {
	Drops []Drop
}

// Error implements the error interface.
func (e *BackpressureError) Error() string {
	var b strings.Builder
	b.WriteString("subscriber backpressure:")
	for i := range e.Drops {
		fmt.Fprintf(&b, " %s@%d", e.Drops[i].Subscriber, e.Drops[i].Version)
	}
	return b.String()
}
