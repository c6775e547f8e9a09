package eventsub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionTracker(t *testing.T) {
	var tr versionTracker

	require.Equal(t, uint64(0), tr.Last())
	require.False(t, tr.Advance(0))

	require.True(t, tr.Advance(5))
	require.Equal(t, uint64(5), tr.Last())

	// Backwards and repeated advances are no-ops.
	require.False(t, tr.Advance(5))
	require.False(t, tr.Advance(3))
	require.Equal(t, uint64(5), tr.Last())

	require.True(t, tr.Advance(6))
	require.Equal(t, uint64(6), tr.Last())
}
