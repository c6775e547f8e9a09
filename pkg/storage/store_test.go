package storage

import (
	"path/filepath"
	"testing"

	"github.com/meshsync/chainwatch/pkg/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

type dbSetup struct {
	name   string
	create func(t *testing.T) Store
}

func newLevelDBForTesting(t *testing.T) Store {
	store, err := NewLevelDBStore(dbconfig.LevelDBOptions{
		DataDirectoryPath: t.TempDir(),
	})
	require.NoError(t, err, "NewLevelDBStore error")
	return store
}

func newBoltStoreForTesting(t *testing.T) Store {
	store, err := NewBoltDBStore(dbconfig.BoltDBOptions{
		FilePath: filepath.Join(t.TempDir(), "test_bolt_db"),
	})
	require.NoError(t, err, "NewBoltDBStore error")
	return store
}

var dbSetups = []dbSetup{
	{"MemoryStore", func(t *testing.T) Store { return NewMemoryStore() }},
	{"LevelDBStore", newLevelDBForTesting},
	{"BoltDBStore", newBoltStoreForTesting},
}

func testStoreGetPut(t *testing.T, s Store) {
	key := []byte{0x01, 0x42}
	value := []byte("value")

	_, err := s.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.PutChangeSet(map[string][]byte{string(key): value}))
	res, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, res)

	// nil value deletes the key.
	require.NoError(t, s.PutChangeSet(map[string][]byte{string(key): nil}))
	_, err = s.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func testStoreSeek(t *testing.T, s Store) {
	var prefix = []byte{0x01}
	kvs := map[string][]byte{
		"\x01\x02": []byte("2"),
		"\x01\x01": []byte("1"),
		"\x01\x04": []byte("4"),
		"\x01\x03": []byte("3"),
		"\x02\x01": []byte("other prefix"),
	}
	require.NoError(t, s.PutChangeSet(kvs))

	collect := func(rng SeekRange, limit int) []string {
		var res []string
		s.Seek(rng, func(k, v []byte) bool {
			res = append(res, string(v))
			return limit == 0 || len(res) < limit
		})
		return res
	}

	t.Run("ascending", func(t *testing.T) {
		require.Equal(t, []string{"1", "2", "3", "4"}, collect(SeekRange{Prefix: prefix}, 0))
	})
	t.Run("with start", func(t *testing.T) {
		require.Equal(t, []string{"3", "4"}, collect(SeekRange{Prefix: prefix, Start: []byte{0x03}}, 0))
	})
	t.Run("early exit", func(t *testing.T) {
		require.Equal(t, []string{"1", "2"}, collect(SeekRange{Prefix: prefix}, 2))
	})
	t.Run("backwards", func(t *testing.T) {
		require.Equal(t, []string{"4", "3", "2", "1"}, collect(SeekRange{Prefix: prefix, Backwards: true}, 0))
	})
	t.Run("backwards with start", func(t *testing.T) {
		require.Equal(t, []string{"2", "1"}, collect(SeekRange{Prefix: prefix, Start: []byte{0x02}, Backwards: true}, 0))
	})
}

func TestAllDBs(t *testing.T) {
	for _, setup := range dbSetups {
		t.Run(setup.name, func(t *testing.T) {
			t.Run("GetPut", func(t *testing.T) {
				s := setup.create(t)
				testStoreGetPut(t, s)
				require.NoError(t, s.Close())
			})
			t.Run("Seek", func(t *testing.T) {
				s := setup.create(t)
				testStoreSeek(t, s)
				require.NoError(t, s.Close())
			})
		})
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewStore(dbconfig.DBConfiguration{Type: "unknowndb"})
	require.Error(t, err)
}
