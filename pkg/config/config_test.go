package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meshsync/chainwatch/pkg/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalDefaults(t *testing.T) {
	cfg, err := Unmarshal(nil)
	require.NoError(t, err)
	require.Equal(t, dbconfig.InMemoryDB, cfg.DB.Type)
	require.Equal(t, 0, cfg.EventSub.ChannelCapacity)
	require.False(t, cfg.Prometheus.Enabled)
}

func TestLoad(t *testing.T) {
	const data = `
EventSub:
  ChannelCapacity: 100
DB:
  Type: "leveldb"
  LevelDBOptions:
    DataDirectoryPath: "/chains/events"
Prometheus:
  Enabled: true
  Addresses:
    - ":2112"
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 100, cfg.EventSub.ChannelCapacity)
	require.Equal(t, dbconfig.LevelDB, cfg.DB.Type)
	require.Equal(t, "/chains/events", cfg.DB.LevelDBOptions.DataDirectoryPath)
	require.True(t, cfg.Prometheus.Enabled)
	require.Equal(t, []string{":2112"}, cfg.Prometheus.GetAddresses())

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
		require.Error(t, err)
	})

	t.Run("broken YAML", func(t *testing.T) {
		_, err := Unmarshal([]byte("EventSub: [unclosed"))
		require.Error(t, err)
	})
}
