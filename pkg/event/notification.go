package event

// Notification is one delivery unit put onto a subscriber's channel: all
// events relevant to that subscriber for one dispatched version range, in
// commit order.
type Notification struct {
	// ID is a process-wide monotonically increasing identifier of the
	// dispatch, used for log correlation only.
	ID uint64 `json:"id"`
	// Events are ordered by version and by on-chain sequence within it.
	Events []Event `json:"events"`
	// Version is the ledger version the events were committed at.
	Version uint64 `json:"version"`
}
