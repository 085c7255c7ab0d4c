// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "vid-1", sampleIndex(), 5*time.Minute))
	assert.True(t, mr.Exists(KeyPrefix+"vid-1"))

	idx, ok, err := c.Get(ctx, "vid-1")
	require.NoError(t, err)
	require.True(t, ok)
	e, found := idx.Lookup("en")
	require.True(t, found)
	assert.Equal(t, "English", e.Label)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "vid", sampleIndex(), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "vid")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisCache_CorruptEntryIsDropped(t *testing.T) {
	mr, c := setupMiniRedis(t)
	require.NoError(t, mr.Set(KeyPrefix+"bad", "{not json"))

	_, ok, err := c.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(KeyPrefix+"bad"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, c := setupMiniRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "vid")
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr}, zerolog.Nop())
	assert.Error(t, err)
}
