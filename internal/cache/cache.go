// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cache caches platform transcript indexes per video so opening an
// editing session does not always hit the video platform.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
)

// IndexCache stores platform indexes keyed by video id.
type IndexCache interface {
	// Get returns the cached index. A miss is (zero, false, nil).
	Get(ctx context.Context, videoID string) (model.PlatformIndex, bool, error)
	// Set stores idx for ttl.
	Set(ctx context.Context, videoID string, idx model.PlatformIndex, ttl time.Duration) error
	// Delete drops the entry for videoID.
	Delete(ctx context.Context, videoID string) error
	// Stats returns cache statistics.
	Stats() Stats
	// Close releases background resources.
	Close() error
}

// Stats holds cache performance metrics.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

type entry struct {
	index      model.PlatformIndex
	expiration time.Time
}

// MemoryCache is an in-process IndexCache with a background janitor.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	stats   Stats
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemoryCache creates a cache whose janitor removes expired entries every
// cleanupInterval. A non-positive interval disables the janitor.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

// Get implements IndexCache.
func (c *MemoryCache) Get(_ context.Context, videoID string) (model.PlatformIndex, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[videoID]
	if !found || c.now().After(e.expiration) {
		c.stats.Misses++
		return model.PlatformIndex{}, false, nil
	}
	c.stats.Hits++
	return e.index, true, nil
}

// Set implements IndexCache.
func (c *MemoryCache) Set(_ context.Context, videoID string, idx model.PlatformIndex, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[videoID] = entry{index: idx, expiration: c.now().Add(ttl)}
	c.stats.Sets++
	return nil
}

// Delete implements IndexCache.
func (c *MemoryCache) Delete(_ context.Context, videoID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, videoID)
	return nil
}

// Stats implements IndexCache.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// Close stops the janitor and waits for it to exit.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

func (c *MemoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if now.After(e.expiration) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

type noOpCache struct{}

// NewNoOpCache creates a cache that never stores anything.
func NewNoOpCache() IndexCache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) (model.PlatformIndex, bool, error) {
	return model.PlatformIndex{}, false, nil
}
func (noOpCache) Set(context.Context, string, model.PlatformIndex, time.Duration) error { return nil }
func (noOpCache) Delete(context.Context, string) error { return nil }
func (noOpCache) Stats() Stats { return Stats{} }
func (noOpCache) Close() error { return nil }
