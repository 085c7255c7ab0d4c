// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
)

// KeyPrefix namespaces index entries in a shared Redis database.
const KeyPrefix = "transcriptd:index:"

// RedisCache is a Redis-backed IndexCache shared between replicas.
type RedisCache struct {
	client *redis.Client
	logger zerolog.Logger
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, config RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("event", "cache.redis_connected").
		Str("addr", config.Addr).
		Int("db", config.DB).
		Msg("connected to Redis index cache")

	return &RedisCache{client: client, logger: logger}, nil
}

// Get implements IndexCache. Undecodable entries are dropped and reported as misses.
func (c *RedisCache) Get(ctx context.Context, videoID string) (model.PlatformIndex, bool, error) {
	val, err := c.client.Get(ctx, KeyPrefix+videoID).Bytes()
	if errors.Is(err, redis.Nil) {
		c.stats.misses.Add(1)
		return model.PlatformIndex{}, false, nil
	}
	if err != nil {
		c.stats.misses.Add(1)
		return model.PlatformIndex{}, false, fmt.Errorf("redis get: %w", err)
	}

	idx, err := model.DecodePlatformIndex(val)
	if err != nil {
		c.logger.Warn().Err(err).Str("video_id", videoID).Msg("dropping undecodable index entry")
		_ = c.client.Del(ctx, KeyPrefix+videoID).Err()
		c.stats.misses.Add(1)
		return model.PlatformIndex{}, false, nil
	}
	c.stats.hits.Add(1)
	return idx, true, nil
}

// Set implements IndexCache.
func (c *RedisCache) Set(ctx context.Context, videoID string, idx model.PlatformIndex, ttl time.Duration) error {
	data, err := idx.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := c.client.Set(ctx, KeyPrefix+videoID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	c.stats.sets.Add(1)
	return nil
}

// Delete implements IndexCache.
func (c *RedisCache) Delete(ctx context.Context, videoID string) error {
	if err := c.client.Del(ctx, KeyPrefix+videoID).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Stats implements IndexCache. CurrentSize counts keys under KeyPrefix.
func (c *RedisCache) Stats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	size := 0
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		size++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
	}

	return Stats{
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Sets:        c.stats.sets.Load(),
		CurrentSize: size,
	}
}

// Ping checks connectivity, used by readiness probes.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
