// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package editor implements the transcript editing session: it reconciles
// the attached transcripts with what the video platform offers, sequences
// uploads, and gates saving on every slot having a completed upload.
package editor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	"github.com/ManuGH/transcriptd/internal/handlers"
	xlog "github.com/ManuGH/transcriptd/internal/log"
)

// FieldSink receives the transcripts value when a session is saved.
type FieldSink interface {
	Flush(ctx context.Context, itemID, videoID, value string) error
}

// Config describes the session to open.
type Config struct {
	ItemID  string
	VideoID string
	// Persisted is the current value of the item's transcripts field.
	Persisted string
	Index     model.PlatformIndex
	Handlers  handlers.Handlers
	Sink      FieldSink
	// DownloadBase is the download handler path used to build links.
	DownloadBase string
	// VTTBase is the conversion handler path players load non-WebVTT files from.
	VTTBase string
	Now     func() time.Time
}

// operation is an upload awaiting its handler response.
type operation struct {
	token uint64
	flow  string
}

// Session is one editing session over a content item's transcripts. All
// state changes happen under mu; handler calls run without it.
type Session struct {
	id           string
	itemID       string
	videoID      string
	index        model.PlatformIndex
	handlers     handlers.Handlers
	sink         FieldSink
	downloadBase string
	vttBase      string
	now          func() time.Time
	logger       zerolog.Logger

	mu         sync.Mutex
	working    *model.Set // includes slots still waiting for an upload
	persisted  string     // compacted serialization of working
	inflight   map[string]operation
	seq        uint64
	closed     bool
	lastActive time.Time
}

// NewSession hydrates the persisted value and opens a session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.ItemID == "" {
		return nil, fmt.Errorf("open session: item id is required")
	}
	if cfg.Handlers == nil {
		return nil, fmt.Errorf("open session: handlers are required")
	}
	set, err := model.Hydrate(cfg.Persisted)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Session{
		id:           uuid.NewString(),
		itemID:       cfg.ItemID,
		videoID:      cfg.VideoID,
		index:        cfg.Index,
		handlers:     cfg.Handlers,
		sink:         cfg.Sink,
		downloadBase: cfg.DownloadBase,
		vttBase:      cfg.VTTBase,
		now:          now,
		working:      set,
		inflight:     make(map[string]operation),
		lastActive:   now(),
	}
	s.logger = xlog.WithComponent("editor").With().
		Str(xlog.FieldSessionID, s.id).
		Str(xlog.FieldItemID, s.itemID).
		Str(xlog.FieldVideoID, s.videoID).
		Logger()
	if err := s.persistLocked(); err != nil {
		return nil, err
	}

	for _, lang := range model.Enabled(set) {
		if !s.index.Has(lang) {
			s.logger.Warn().
				Str(xlog.FieldEvent, "session.orphaned_default").
				Str(xlog.FieldLang, lang).
				Msg("default transcript is no longer offered by the video platform")
		}
	}
	s.logger.Info().
		Str(xlog.FieldEvent, "session.opened").
		Int("records", set.Len()).
		Int("platform_languages", s.index.Len()).
		Msg("editing session opened")
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ItemID returns the edited content item.
func (s *Session) ItemID() string { return s.itemID }

// VideoID returns the item's video id.
func (s *Session) VideoID() string { return s.videoID }

// Closed reports whether the session was saved or cancelled.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SlotView is a working-set record as shown to the author.
type SlotView struct {
	model.Record
	Pending     bool   `json:"pending"`
	Uploading   bool   `json:"uploading"`
	DownloadURL string `json:"download_url,omitempty"`
	PlayerURL   string `json:"player_url,omitempty"`
}

// Snapshot is the observable state of a session.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	ItemID    string         `json:"item_id"`
	VideoID   string         `json:"video_id,omitempty"`
	Slots     []SlotView     `json:"slots"`
	Persisted string         `json:"persisted"`
	Views     model.Views    `json:"views"`
	Platform  []PlatformView `json:"platform"`
	InFlight  []string       `json:"in_flight"`
	Closed    bool           `json:"closed"`
}

// PlatformView is one language the video platform offers.
type PlatformView struct {
	Lang  string `json:"lang"`
	Label string `json:"label"`
}

// Snapshot returns the current state with freshly derived views.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.working.Records()
	slots := make([]SlotView, 0, len(records))
	for _, r := range records {
		_, busy := s.inflight[r.Lang]
		slots = append(slots, SlotView{
			Record:      r,
			Pending:     r.Pending(),
			Uploading:   busy,
			DownloadURL: handlers.DownloadLink(s.downloadBase, r.URL),
			PlayerURL:   handlers.RouteTranscriptURL(s.vttBase, r.URL),
		})
	}
	platform := make([]PlatformView, 0, s.index.Len())
	for _, lang := range s.index.Langs() {
		e, _ := s.index.Lookup(lang)
		platform = append(platform, PlatformView{Lang: lang, Label: e.Label})
	}

	return Snapshot{
		SessionID: s.id,
		ItemID:    s.itemID,
		VideoID:   s.videoID,
		Slots:     slots,
		Persisted: s.persisted,
		Views:     model.Derive(s.index, s.working),
		Platform:  platform,
		InFlight:  s.inFlightLocked(),
		Closed:    s.closed,
	}
}

// Persisted returns the serialized value the field would be saved with.
func (s *Session) Persisted() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted
}

// persistLocked re-serializes the compacted working set so pending slots
// never reach the persisted value.
func (s *Session) persistLocked() error {
	c := s.working.Clone()
	c.Compact()
	value, err := c.Serialize()
	if err != nil {
		return err
	}
	s.persisted = value
	return nil
}

// beginLocked checks that the session accepts operations.
func (s *Session) beginLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.lastActive = s.now()
	return nil
}

func (s *Session) busyLocked(langs ...string) bool {
	for _, lang := range langs {
		if lang == "" {
			continue
		}
		if _, ok := s.inflight[lang]; ok {
			return true
		}
	}
	return false
}

// startLocked registers an in-flight operation and returns its token.
func (s *Session) startLocked(lang, flow string) uint64 {
	s.seq++
	s.inflight[lang] = operation{token: s.seq, flow: flow}
	return s.seq
}

// finishLocked retires the operation and reports whether it was still
// current. Removal, reset and cancel invalidate operations by dropping them.
func (s *Session) finishLocked(lang string, token uint64) bool {
	op, ok := s.inflight[lang]
	if !ok || op.token != token {
		return false
	}
	delete(s.inflight, lang)
	return true
}

func (s *Session) inFlightLocked() []string {
	out := make([]string, 0, len(s.inflight))
	for lang := range s.inflight {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func (s *Session) target() handlers.Target {
	return handlers.Target{ItemID: s.itemID, VideoID: s.videoID}
}
