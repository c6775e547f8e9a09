package eventsub

// versionTracker records the highest ledger version notifications have been
// dispatched for. It only ever moves forward and is not persisted: on every
// process start it is seeded from the ledger's synced version.
type versionTracker struct {
	lastDispatched uint64
}

// Last returns the highest already dispatched version.
func (t *versionTracker) Last() uint64 {
	return t.lastDispatched
}

// Advance moves the tracker to the given version. Requests to move backwards
// or to the current version are no-ops returning false.
func (t *versionTracker) Advance(to uint64) bool {
	if to <= t.lastDispatched {
		return false
	}
	t.lastDispatched = to
	return true
}
