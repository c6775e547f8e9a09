package eventsub

import (
	"github.com/meshsync/chainwatch/pkg/event"
)

// Filter restricts a subscription to a set of event keys. The zero Filter
// matches nothing and is rejected at subscription time, use NewFilter or
// AllEvents.
type Filter struct {
	all  bool
	keys map[event.Key]bool
}

// NewFilter makes a Filter matching exactly the given set of keys.
func NewFilter(keys ...event.Key) Filter {
	m := make(map[event.Key]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return Filter{keys: m}
}

// AllEvents makes a Filter matching any event key.
func AllEvents() Filter {
	return Filter{all: true}
}

// IsValid reports whether the filter can be subscribed with. An explicit
// empty key set would match nothing at all.
func (f Filter) IsValid() bool {
	return f.all || len(f.keys) > 0
}

// Matches reports whether the given key passes the filter. Matching is exact
// set membership, there are no wildcards.
func (f Filter) Matches(key event.Key) bool {
	return f.all || f.keys[key]
}
