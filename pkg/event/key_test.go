package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	acc := [32]uint8{1, 2, 3}
	k := NewKey(acc, 7)
	require.Equal(t, acc, k.Account())
	require.Equal(t, uint64(7), k.CreationNumber())
}

func TestNewEpochKey(t *testing.T) {
	k := NewEpochKey()
	require.Equal(t, uint64(5), k.CreationNumber())
	require.True(t, k.Equals(NewEpochKey()))
	require.False(t, k.Equals(NewKey(k.Account(), 6)))
}

func TestKeyDecodeString(t *testing.T) {
	k := NewKey([32]uint8{0xde, 0xad}, 1)

	parsed, err := KeyDecodeString(k.String())
	require.NoError(t, err)
	require.Equal(t, k, parsed)

	parsed, err = KeyDecodeString("0x" + k.String())
	require.NoError(t, err)
	require.Equal(t, k, parsed)

	_, err = KeyDecodeString(k.String()[2:])
	require.Error(t, err)
	_, err = KeyDecodeString("zz" + k.String()[2:])
	require.Error(t, err)
}

func TestKeyJSON(t *testing.T) {
	k := NewKey([32]uint8{0xbe, 0xef}, 3)
	data, err := json.Marshal(k)
	require.NoError(t, err)
	require.Equal(t, `"0x`+k.String()+`"`, string(data))

	var decoded Key
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, k, decoded)

	require.Error(t, json.Unmarshal([]byte(`"0xff"`), &decoded))
	require.Error(t, json.Unmarshal([]byte(`12345`), &decoded))
}
