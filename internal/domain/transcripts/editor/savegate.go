// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"context"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	xlog "github.com/ManuGH/transcriptd/internal/log"
	"github.com/ManuGH/transcriptd/internal/metrics"
)

// CheckSlots returns one error per slot without a completed upload, in
// working-set order.
func CheckSlots(set *model.Set) []SlotError {
	var out []SlotError
	for _, r := range set.Records() {
		if r.Pending() {
			out = append(out, SlotError{Lang: r.Lang, Message: msgPendingSlot})
		}
	}
	return out
}

// Validate runs the save gate without saving.
func (s *Session) Validate() []SlotError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateLocked()
}

func (s *Session) gateLocked() []SlotError {
	slots := CheckSlots(s.working)
	flagged := make(map[string]bool, len(slots))
	for _, e := range slots {
		flagged[e.Lang] = true
	}
	for _, lang := range s.inFlightLocked() {
		if !flagged[lang] {
			slots = append(slots, SlotError{Lang: lang, Message: msgUploadInFlight})
		}
	}
	return slots
}

// Save flushes the persisted value and closes the session. It is refused
// while any slot lacks a completed upload.
func (s *Session) Save(ctx context.Context) (out Outcome, err error) {
	ctx, span := s.startSpan(ctx, FlowSave, "")
	defer span.End()
	defer func() { s.record(span, FlowSave, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginLocked(); err != nil {
		return Outcome{}, err
	}
	if slots := s.gateLocked(); len(slots) > 0 {
		metrics.RecordSaveBlocked()
		s.logger.Info().
			Str(xlog.FieldEvent, "session.save_blocked").
			Int("slots", len(slots)).
			Msg("save blocked by incomplete transcripts")
		return Outcome{}, &SaveBlockedError{Slots: slots}
	}

	if s.sink != nil {
		if err := s.sink.Flush(ctx, s.itemID, s.videoID, s.persisted); err != nil {
			return Outcome{}, transportError(FlowSave, "", err)
		}
	}
	s.closed = true
	metrics.RecordSessionSaved()
	s.logger.Info().
		Str(xlog.FieldEvent, "session.saved").
		Msg("editing session saved")
	return Outcome{Action: FlowSave, Closed: true}, nil
}

// Cancel discards the session and every upload still in flight.
func (s *Session) Cancel(ctx context.Context) (out Outcome, err error) {
	_, span := s.startSpan(ctx, FlowCancel, "")
	defer span.End()
	defer func() { s.record(span, FlowCancel, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Outcome{}, ErrSessionClosed
	}
	s.closed = true
	clear(s.inflight)
	s.logger.Info().
		Str(xlog.FieldEvent, "session.cancelled").
		Msg("editing session discarded")
	return Outcome{Action: FlowCancel, Closed: true}, nil
}
