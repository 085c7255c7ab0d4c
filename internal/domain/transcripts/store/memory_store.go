// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"sync"
)

// MemoryStore keeps items in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

// GetItem implements FieldStore.
func (s *MemoryStore) GetItem(_ context.Context, itemID string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[itemID]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

// PutItem implements FieldStore.
func (s *MemoryStore) PutItem(_ context.Context, item *Item) error {
	if err := validate(item); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ItemID] = *item
	return nil
}

// UpdateItem implements FieldStore.
func (s *MemoryStore) UpdateItem(_ context.Context, itemID string, fn func(*Item) error) error {
	if itemID == "" {
		return ErrInvalidItem
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		it = Item{ItemID: itemID}
	}
	if err := fn(&it); err != nil {
		return err
	}
	it.ItemID = itemID
	s.items[itemID] = it
	return nil
}

// Ping implements FieldStore.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements FieldStore.
func (s *MemoryStore) Close() error { return nil }
