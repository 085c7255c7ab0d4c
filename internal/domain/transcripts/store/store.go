// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists the transcripts field of content items.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Item is a content item with its persisted transcripts field.
type Item struct {
	ItemID      string    `json:"item_id"`
	VideoID     string    `json:"video_id"`
	Transcripts string    `json:"transcripts"` // JSON array of transcript records
	StartTime   string    `json:"start_time,omitempty"`
	EndTime     string    `json:"end_time,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FieldStore reads and writes content items.
type FieldStore interface {
	// GetItem returns the item, or (nil, nil) when it does not exist.
	GetItem(ctx context.Context, itemID string) (*Item, error)
	// PutItem creates or replaces the item.
	PutItem(ctx context.Context, item *Item) error
	// UpdateItem applies fn to the stored item, or to a new item carrying
	// only itemID, and writes the result. An error from fn aborts the write.
	UpdateItem(ctx context.Context, itemID string, fn func(*Item) error) error
	// Ping checks that the backend is usable.
	Ping(ctx context.Context) error
	Close() error
}

// ErrInvalidItem is returned for items without an id.
var ErrInvalidItem = errors.New("item id is required")

// Backends accepted by OpenFieldStore.
const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendBadger = "badger"
)

// OpenFieldStore creates a FieldStore for backend. An empty backend means
// sqlite, or memory when path is empty too.
func OpenFieldStore(backend, path string) (FieldStore, error) {
	if backend == "" {
		if path == "" {
			return NewMemoryStore(), nil
		}
		backend = BackendSqlite
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSqlite:
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return NewSqliteStore(path)
	case BackendBadger:
		if path == "" {
			return nil, fmt.Errorf("badger backend requires a path")
		}
		return OpenBadgerStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}

// Flusher adapts a FieldStore to the editor's save hook.
type Flusher struct {
	Store FieldStore
	Now   func() time.Time
}

// Flush writes value as the transcripts field of the item.
func (f Flusher) Flush(ctx context.Context, itemID, videoID, value string) error {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return f.Store.UpdateItem(ctx, itemID, func(it *Item) error {
		it.VideoID = videoID
		it.Transcripts = value
		it.UpdatedAt = now().UTC()
		return nil
	})
}

func validate(item *Item) error {
	if item == nil || item.ItemID == "" {
		return ErrInvalidItem
	}
	return nil
}
