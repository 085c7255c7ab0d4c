// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/transcriptd/internal/persistence/sqlite"
)

const schemaVersion = 2

// SqliteStore implements FieldStore using SQLite.
type SqliteStore struct {
	DB *sql.DB

	// mu serializes read-modify-write updates.
	mu sync.Mutex
}

// sqlRunner is satisfied by both *sql.DB and *sql.Tx.
type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSqliteStore opens (and migrates) the database at dbPath.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s := &SqliteStore{DB: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("field store: migration failed: %w", err)
	}
	return s, nil
}

// migrations[i] moves the schema from version i to i+1.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS items (
		item_id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		transcripts TEXT NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_video ON items(video_id);
	`,
	`
	ALTER TABLE items ADD COLUMN start_time TEXT NOT NULL DEFAULT '';
	ALTER TABLE items ADD COLUMN end_time TEXT NOT NULL DEFAULT '';
	`,
}

func (s *SqliteStore) migrate() error {
	var currentVersion int
	if err := s.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for v := currentVersion; v < schemaVersion; v++ {
		if _, err := tx.Exec(migrations[v]); err != nil {
			return fmt.Errorf("schema v%d: %w", v+1, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// GetItem implements FieldStore.
func (s *SqliteStore) GetItem(ctx context.Context, itemID string) (*Item, error) {
	return getItem(ctx, s.DB, itemID)
}

// PutItem implements FieldStore.
func (s *SqliteStore) PutItem(ctx context.Context, item *Item) error {
	if err := validate(item); err != nil {
		return err
	}
	return putItem(ctx, s.DB, item)
}

// UpdateItem implements FieldStore.
func (s *SqliteStore) UpdateItem(ctx context.Context, itemID string, fn func(*Item) error) error {
	if itemID == "" {
		return ErrInvalidItem
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	it, err := getItem(ctx, tx, itemID)
	if err != nil {
		return err
	}
	if it == nil {
		it = &Item{ItemID: itemID}
	}
	if err := fn(it); err != nil {
		return err
	}
	it.ItemID = itemID
	if err := putItem(ctx, tx, it); err != nil {
		return err
	}
	return tx.Commit()
}

func getItem(ctx context.Context, q sqlRunner, itemID string) (*Item, error) {
	var (
		it        Item
		updatedMs int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT item_id, video_id, transcripts, start_time, end_time, updated_at_ms
		FROM items WHERE item_id = ?`, itemID).
		Scan(&it.ItemID, &it.VideoID, &it.Transcripts, &it.StartTime, &it.EndTime, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	it.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return &it, nil
}

func putItem(ctx context.Context, q sqlRunner, item *Item) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO items (item_id, video_id, transcripts, start_time, end_time, updated_at_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			video_id = excluded.video_id,
			transcripts = excluded.transcripts,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			updated_at_ms = excluded.updated_at_ms`,
		item.ItemID, item.VideoID, item.Transcripts, item.StartTime, item.EndTime, item.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Ping implements FieldStore.
func (s *SqliteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close implements FieldStore.
func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
