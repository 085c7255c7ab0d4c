// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/store"
)

type staticIndex struct {
	idx model.PlatformIndex
	err error
}

func (s staticIndex) Index(context.Context, string) (model.PlatformIndex, error) {
	return s.idx, s.err
}

func newTestManager(t *testing.T, idx IndexSource, now func() time.Time) (*Manager, *store.MemoryStore) {
	t.Helper()
	items := store.NewMemoryStore()
	require.NoError(t, items.PutItem(context.Background(), &store.Item{ItemID: "item-1", VideoID: "vid-1", Transcripts: mixedField}))
	return NewManager(ManagerConfig{
		Items:       items,
		Index:       idx,
		Handlers:    &fakeHandlers{},
		Sink:        store.Flusher{Store: items},
		IdleTimeout: 10 * time.Minute,
		Now:         now,
	}), items
}

func TestManager_OpenSaveRoundTrip(t *testing.T) {
	m, items := newTestManager(t, staticIndex{idx: testIndex()}, nil)
	ctx := context.Background()

	s, err := m.Open(ctx, "item-1", "")
	require.NoError(t, err)
	assert.Equal(t, "vid-1", s.VideoID())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = s.EnableDefault(ctx, "uk")
	require.NoError(t, err)
	_, err = s.Save(ctx)
	require.NoError(t, err)

	item, err := items.GetItem(ctx, "item-1")
	require.NoError(t, err)
	set, err := model.Hydrate(item.Transcripts)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr", "uk"}, set.Langs())

	assert.Equal(t, 1, m.Sweep(ctx), "closed sessions are swept")
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_OpenNewItemWithoutPlatform(t *testing.T) {
	m, _ := newTestManager(t, staticIndex{err: errors.New("platform down")}, nil)

	s, err := m.Open(context.Background(), "item-2", "vid-9")
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Empty(t, snap.Slots)
	assert.Empty(t, snap.Platform)
	assert.Equal(t, "[]", snap.Persisted)
}

func TestManager_SweepDiscardsIdleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m, _ := newTestManager(t, staticIndex{idx: testIndex()}, clock)

	idle, err := m.Open(context.Background(), "item-1", "")
	require.NoError(t, err)
	now = now.Add(5 * time.Minute)
	active, err := m.Open(context.Background(), "item-1", "")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, m.Sweep(context.Background()))
	assert.True(t, idle.Closed())
	assert.False(t, active.Closed())
	assert.Equal(t, 1, m.Len())
}

func TestManager_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	m, _ := newTestManager(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, 10*time.Millisecond) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
