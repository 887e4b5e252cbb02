package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/evanofslack/nmcli-sync/internal/metrics"
)

const keyPrefix = "lookup:"

type badgerStore struct {
	db      *badger.DB
	metrics *metrics.Metrics
}

// NewBadger opens a local badger database at path.
func NewBadger(path string, metrics *metrics.Metrics) (Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &badgerStore{db: db, metrics: metrics}, nil
}

func (s *badgerStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	found := true
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	s.metrics.IncLookupRequest(BackendBadger, "read", err == nil)
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

func (s *badgerStore) Set(ctx context.Context, key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), []byte(value))
	})
	s.metrics.IncLookupRequest(BackendBadger, "update", err == nil)
	return err
}

func (s *badgerStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	s.metrics.IncLookupRequest(BackendBadger, "read", err == nil)
	return keys, err
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
