package event

import (
	"testing"

	"github.com/meshsync/chainwatch/pkg/io"
	"github.com/stretchr/testify/require"
)

func TestEventSerializable(t *testing.T) {
	e := New(NewKey([32]uint8{1}, 2), 3, 4, []byte("payload"))

	data, err := io.ToByteArray(&e)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, io.FromByteArray(&decoded, data))
	require.Equal(t, e, decoded)

	t.Run("truncated input", func(t *testing.T) {
		require.Error(t, io.FromByteArray(&decoded, data[:len(data)-3]))
	})
}

func TestIsNewEpoch(t *testing.T) {
	reconfig := New(NewEpochKey(), 0, 1, nil)
	require.True(t, reconfig.IsNewEpoch())

	regular := New(NewKey([32]uint8{1}, 5), 0, 1, nil)
	require.False(t, regular.IsNewEpoch())
}
