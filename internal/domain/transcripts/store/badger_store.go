// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	itemKeyPrefix    = "item:"
	maxUpdateRetries = 3
)

// BadgerStore implements FieldStore on an embedded Badger database.
// Items are stored as JSON under "item:<id>".
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens the Badger database in dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// GetItem implements FieldStore.
func (s *BadgerStore) GetItem(_ context.Context, itemID string) (*Item, error) {
	var out Item
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(itemKeyPrefix + itemID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &out, nil
}

// PutItem implements FieldStore.
func (s *BadgerStore) PutItem(_ context.Context, item *Item) error {
	if err := validate(item); err != nil {
		return err
	}
	buf, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(itemKeyPrefix+item.ItemID), buf)
	})
}

// UpdateItem implements FieldStore. Transactions that lose a write
// conflict are retried.
func (s *BadgerStore) UpdateItem(_ context.Context, itemID string, fn func(*Item) error) error {
	if itemID == "" {
		return ErrInvalidItem
	}
	key := []byte(itemKeyPrefix + itemID)
	for attempt := 0; ; attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			it := Item{ItemID: itemID}
			existing, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if err := existing.Value(func(val []byte) error {
					return json.Unmarshal(val, &it)
				}); err != nil {
					return err
				}
			}
			if err := fn(&it); err != nil {
				return err
			}
			it.ItemID = itemID
			buf, err := json.Marshal(&it)
			if err != nil {
				return err
			}
			return txn.Set(key, buf)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxUpdateRetries {
			continue
		}
		return err
	}
}

// Ping implements FieldStore.
func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger store is closed")
	}
	return nil
}

// Close implements FieldStore.
func (s *BadgerStore) Close() error { return s.db.Close() }
