/*
Package dbconfig is a micropackage that contains storage DB configuration options.
*/
package dbconfig

// Available storage types.
const (
	// LevelDB represents LevelDB inside the DB configuration.
	LevelDB = "leveldb"
	// InMemoryDB represents an in-memory DB inside the DB configuration.
	InMemoryDB = "inmemory"
	// BoltDB represents Bolt DB inside the DB configuration.
	BoltDB = "boltdb"
)

type (
	// DBConfiguration describes configuration for DB. Supported types:
	// [LevelDB], [BoltDB] or [InMemoryDB] (not recommended for production
	// usage).
	DBConfiguration struct {
		Type           string         `yaml:"Type"`
		LevelDBOptions LevelDBOptions `yaml:"LevelDBOptions"`
		BoltDBOptions  BoltDBOptions  `yaml:"BoltDBOptions"`
	}
	// LevelDBOptions configuration for LevelDB.
	LevelDBOptions struct {
		DataDirectoryPath string `yaml:"DataDirectoryPath"`
		ReadOnly          bool   `yaml:"ReadOnly"`
	}
	// BoltDBOptions configuration for BoltDB.
	BoltDBOptions struct {
		FilePath string `yaml:"FilePath"`
		ReadOnly bool   `yaml:"ReadOnly"`
	}
)
