package eventsub

import (
	"github.com/google/uuid"

	"github.com/meshsync/chainwatch/pkg/event"
)

// subscription is the service-side state of one subscriber: its filter and
// the sending half of the delivery channel. The receiving half is owned by
// the subscriber.
type subscription struct {
	id       uuid.UUID
	filter   Filter
	reconfig bool
	ch       chan event.Notification
}

// trySend makes a single non-blocking enqueue attempt. A full channel means
// the subscriber has fallen behind, the notification is dropped rather than
// blocking the commit path.
func (s *subscription) trySend(n event.Notification) bool {
	select {
	case s.ch <- n:
		return true
	default:
		return false
	}
}

// matched builds the sub-sequence of events this subscription should see,
// preserving batch order. Reconfiguration events bypass the filter for
// reconfig-aware subscribers, in addition to (not instead of) regular
// matching.
func (s *subscription) matched(events []event.Event) []event.Event {
	var res []event.Event
	for i := range events {
		if s.filter.Matches(events[i].Key) || (s.reconfig && events[i].IsNewEpoch()) {
			res = append(res, events[i])
		}
	}
	return res
}
