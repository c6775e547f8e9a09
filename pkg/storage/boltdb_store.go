package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meshsync/chainwatch/pkg/storage/dbconfig"
	"go.etcd.io/bbolt"
)

// Bucket represents bucket used in boltdb to store all the data.
var Bucket = []byte("DB")

// BoltDBStore it is the storage implementation for storing and retrieving
// ledger event data.
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore returns a new ready to use BoltDB storage with created
// bucket.
func NewBoltDBStore(cfg dbconfig.BoltDBOptions) (*BoltDBStore, error) {
	cp := *bbolt.DefaultOptions
	cp.ReadOnly = cfg.ReadOnly
	fileMode := os.FileMode(0600)
	fileName := cfg.FilePath
	if !cfg.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
			return nil, fmt.Errorf("could not create dir for BoltDB: %w", err)
		}
	}
	db, err := bbolt.Open(fileName, fileMode, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB instance: %w", err)
	}
	if !cfg.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err = tx.CreateBucketIfNotExists(Bucket)
			if err != nil {
				return fmt.Errorf("could not create root bucket: %w", err)
			}
			return nil
		})
		if err != nil {
			closeErr := db.Close()
			if closeErr != nil {
				err = fmt.Errorf("%w, failed to close BoltDB: %v", err, closeErr)
			}
			return nil, err
		}
	}
	return &BoltDBStore{db: db}, nil
}

// Get implements the Store interface.
func (s *BoltDBStore) Get(key []byte) (val []byte, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		// Value from Get is only valid for the lifetime of transaction.
		v := b.Get(key)
		if v != nil {
			val = make([]byte, len(v))
			copy(val, v)
		}
		return nil
	})
	if val == nil {
		err = ErrKeyNotFound
	}
	return
}

// PutChangeSet implements the Store interface.
func (s *BoltDBStore) PutChangeSet(puts map[string][]byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		for k, v := range puts {
			var err error
			if v != nil {
				err = b.Put([]byte(k), v)
			} else {
				err = b.Delete([]byte(k))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Seek implements the Store interface.
func (s *BoltDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	start := make([]byte, len(rng.Prefix)+len(rng.Start))
	copy(start, rng.Prefix)
	copy(start[len(rng.Prefix):], rng.Start)

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(Bucket).Cursor()
		if !rng.Backwards {
			for k, v := c.Seek(start); k != nil && bytes.HasPrefix(k, rng.Prefix); k, v = c.Next() {
				if !f(k, v) {
					break
				}
			}
			return nil
		}
		// Seek to the first key greater than start, then walk back.
		var k, v []byte
		if len(rng.Start) == 0 {
			rang := seekRangeToPrefixes(rng)
			c.Seek(rang.Limit)
			k, v = c.Prev()
		} else {
			k, v = c.Seek(start)
			if k == nil || bytes.Compare(k, start) > 0 {
				k, v = c.Prev()
			}
		}
		for ; k != nil && bytes.HasPrefix(k, rng.Prefix); k, v = c.Prev() {
			if !f(k, v) {
				break
			}
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// Close releases all db resources.
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
