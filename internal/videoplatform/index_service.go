// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package videoplatform

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/transcriptd/internal/cache"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	xlog "github.com/ManuGH/transcriptd/internal/log"
	"github.com/ManuGH/transcriptd/internal/metrics"
)

// IndexService resolves the platform index for a video, caching results
// and collapsing concurrent fetches for the same video.
type IndexService struct {
	provider Provider
	cache    cache.IndexCache
	ttl      time.Duration
	group    singleflight.Group
	logger   zerolog.Logger
}

// NewIndexService wires provider behind c. A nil cache disables caching.
func NewIndexService(provider Provider, c cache.IndexCache, ttl time.Duration) *IndexService {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &IndexService{
		provider: provider,
		cache:    c,
		ttl:      ttl,
		logger:   xlog.WithComponent("index"),
	}
}

// Index returns the platform index for videoID. Items without a video id,
// or whose video the platform does not know, get an empty index.
func (s *IndexService) Index(ctx context.Context, videoID string) (model.PlatformIndex, error) {
	if videoID == "" || s.provider == nil {
		return model.NewPlatformIndex(nil), nil
	}

	idx, ok, err := s.cache.Get(ctx, videoID)
	switch {
	case err != nil:
		metrics.RecordIndexCacheLookup("error")
		s.logger.Warn().Err(err).
			Str(xlog.FieldEvent, "index.cache_error").
			Str(xlog.FieldVideoID, videoID).
			Msg("index cache lookup failed, fetching from platform")
	case ok:
		metrics.RecordIndexCacheLookup("hit")
		return idx, nil
	default:
		metrics.RecordIndexCacheLookup("miss")
	}

	v, err, _ := s.group.Do(videoID, func() (any, error) {
		idx, err := s.provider.ListTranscripts(ctx, videoID)
		if errors.Is(err, ErrVideoNotFound) {
			return model.NewPlatformIndex(nil), nil
		}
		if err != nil {
			return model.PlatformIndex{}, err
		}
		if err := s.cache.Set(ctx, videoID, idx, s.ttl); err != nil {
			s.logger.Warn().Err(err).
				Str(xlog.FieldEvent, "index.cache_store_failed").
				Str(xlog.FieldVideoID, videoID).
				Msg("failed to cache platform index")
		}
		return idx, nil
	})
	if err != nil {
		return model.PlatformIndex{}, err
	}
	return v.(model.PlatformIndex), nil
}

// Invalidate drops the cached index for videoID.
func (s *IndexService) Invalidate(ctx context.Context, videoID string) error {
	return s.cache.Delete(ctx, videoID)
}

// Provider returns the underlying platform provider.
func (s *IndexService) Provider() Provider { return s.provider }
