// Package cache is a local content-addressed byte cache backed by BadgerDB.
//
// Entries are keyed by the server-provided SHA-256 content hash, so a cached
// body stays valid for as long as the server reports the same checksum; a
// changed file gets a new hash and therefore a new entry.
package cache

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/exilefoundry/patchkit/pkg/tree"
)

// Store is a badger-backed content cache. Safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a non-persistent cache.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open in-memory badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached bytes for hash. The second return is false on a
// miss; an error means the cache itself failed.
func (s *Store) Get(hash tree.Sum256) ([]byte, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hash[:])
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", hash, err)
	}
	return data, true, nil
}

// Put stores data under hash, replacing any previous entry.
func (s *Store) Put(hash tree.Sum256, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(hash[:], data)
	})
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", hash, err)
	}
	return nil
}

// Delete drops the entry for hash, if present.
func (s *Store) Delete(hash tree.Sum256) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(hash[:])
	})
	if err != nil {
		return fmt.Errorf("cache: delete %s: %w", hash, err)
	}
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
