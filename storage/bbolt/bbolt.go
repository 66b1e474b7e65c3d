// Package bbolt provides a BBolt-backed storage repository.
package bbolt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmcleod/examcode/storage"
	"go.etcd.io/bbolt"
)

// DefaultBucket is the bucket that holds all records.
const DefaultBucket = "examcode"

// DefaultLockTimeout bounds how long Open waits for another process to
// release the database file lock.
const DefaultLockTimeout = time.Second

// Store implements storage.Repository backed by a BBolt database.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db, bucket: []byte(DefaultBucket)}
}

// NewRepositoryFromFile opens a BBolt database at the given path and returns a new Repository.
// The parent directory is created if it does not exist. A nil options value
// uses DefaultLockTimeout.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating bbolt directory: %w", err)
	}
	if options == nil {
		options = &bbolt.Options{Timeout: DefaultLockTimeout}
	}
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		// data is only valid for the life of the transaction.
		value = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil || b.Get([]byte(key)) == nil {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		return b.Delete([]byte(key))
	})
}
