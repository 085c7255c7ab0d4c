// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/store"
	"github.com/ManuGH/transcriptd/internal/handlers"
	xlog "github.com/ManuGH/transcriptd/internal/log"
	"github.com/ManuGH/transcriptd/internal/metrics"
)

// ItemSource loads the persisted transcripts field of an item.
type ItemSource interface {
	GetItem(ctx context.Context, itemID string) (*store.Item, error)
}

// IndexSource resolves the platform index of a video.
type IndexSource interface {
	Index(ctx context.Context, videoID string) (model.PlatformIndex, error)
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Items        ItemSource
	Index        IndexSource
	Handlers     handlers.Handlers
	Sink         FieldSink
	DownloadBase string
	VTTBase      string
	IdleTimeout  time.Duration
	Now          func() time.Time
}

// Manager opens sessions and keeps them until they close or go idle.
type Manager struct {
	cfg    ManagerConfig
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		cfg:      cfg,
		now:      now,
		logger:   xlog.WithComponent("sessions"),
		sessions: make(map[string]*Session),
	}
}

// Open starts a session for itemID. videoID overrides the stored video id
// when set. A failing platform leaves the session with an empty index so
// manual uploads still work.
func (m *Manager) Open(ctx context.Context, itemID, videoID string) (*Session, error) {
	var persisted string
	if m.cfg.Items != nil {
		item, err := m.cfg.Items.GetItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			persisted = item.Transcripts
			if videoID == "" {
				videoID = item.VideoID
			}
		}
	}

	idx := model.NewPlatformIndex(nil)
	if m.cfg.Index != nil {
		fetched, err := m.cfg.Index.Index(ctx, videoID)
		if err != nil {
			xlog.FromContext(ctx).Warn().Err(err).
				Str(xlog.FieldEvent, "session.index_unavailable").
				Str(xlog.FieldItemID, itemID).
				Str(xlog.FieldVideoID, videoID).
				Msg("platform index unavailable, opening session without default transcripts")
		} else {
			idx = fetched
		}
	}

	s, err := NewSession(Config{
		ItemID:       itemID,
		VideoID:      videoID,
		Persisted:    persisted,
		Index:        idx,
		Handlers:     m.cfg.Handlers,
		Sink:         m.cfg.Sink,
		DownloadBase: m.cfg.DownloadBase,
		VTTBase:      m.cfg.VTTBase,
		Now:          m.now,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep forgets closed sessions and discards idle ones. It returns how many
// sessions were dropped.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()
	m.mu.Lock()
	var (
		expired []*Session
		dropped int
	)
	for id, s := range m.sessions {
		if s.Closed() {
			delete(m.sessions, id)
			dropped++
			continue
		}
		if m.cfg.IdleTimeout > 0 && now.Sub(s.LastActive()) > m.cfg.IdleTimeout {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	dropped += len(expired)
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		_, _ = s.Cancel(ctx)
		m.logger.Info().
			Str(xlog.FieldEvent, "session.expired").
			Str(xlog.FieldSessionID, s.ID()).
			Msg("idle editing session discarded")
	}
	metrics.SetActiveSessions(n)
	return dropped
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}
