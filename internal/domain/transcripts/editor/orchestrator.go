// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	"github.com/ManuGH/transcriptd/internal/handlers"
	xlog "github.com/ManuGH/transcriptd/internal/log"
	"github.com/ManuGH/transcriptd/internal/metrics"
	"github.com/ManuGH/transcriptd/internal/telemetry"
	"github.com/ManuGH/transcriptd/internal/upload"
)

// Flow names used in logs, metrics and spans.
const (
	FlowSelectLanguage = "select_language"
	FlowEnableDefault  = "enable_default"
	FlowUploadManual   = "upload_manual"
	FlowRemove         = "remove_transcript"
	FlowResetDefaults  = "reset_defaults"
	FlowSave           = "save"
	FlowCancel         = "cancel"
)

var tracer = telemetry.Tracer("transcriptd.editor")

func (s *Session) startSpan(ctx context.Context, flow, lang string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "editor."+flow)
	span.SetAttributes(telemetry.TranscriptAttributes(s.id, s.itemID, lang, flow)...)
	return ctx, span
}

func (s *Session) record(span trace.Span, flow string, err error) {
	outcome := outcomeLabel(err)
	metrics.RecordTranscriptOperation(flow, outcome)
	if outcome == "stale" {
		metrics.RecordStaleResponse(flow)
	}
	if err != nil {
		telemetry.RecordError(span, err, outcome)
	}
}

// SelectLanguage changes the language of the slot holding oldLang, or
// creates a new pending slot when oldLang is empty. Clearing the selector
// (empty newLang) removes the slot.
func (s *Session) SelectLanguage(ctx context.Context, oldLang, newLang, label string) (out Outcome, err error) {
	_, span := s.startSpan(ctx, FlowSelectLanguage, newLang)
	defer span.End()
	defer func() { s.record(span, FlowSelectLanguage, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginLocked(); err != nil {
		return Outcome{}, err
	}
	if s.busyLocked(oldLang, newLang) {
		return Outcome{}, ErrLanguageBusy
	}

	res, err := Reassign(s.working, oldLang, newLang, label)
	if err != nil {
		return Outcome{}, err
	}
	out = Outcome{Action: FlowSelectLanguage, Lang: newLang, Added: res.Added}
	switch {
	case res.Unchanged:
		return out, nil
	case res.RemoveSlot:
		s.removeLocked(oldLang)
		out.Lang = oldLang
		out.Removed = true
	}
	if err := s.persistLocked(); err != nil {
		return Outcome{}, err
	}
	s.logger.Debug().
		Str(xlog.FieldEvent, "transcript.language_selected").
		Str(xlog.FieldOldLang, oldLang).
		Str(xlog.FieldLang, newLang).
		Bool("added", res.Added).
		Msg("slot language changed")
	return out, nil
}

// EnableDefault copies the platform transcript for lang into storage and
// attaches it as a default record.
func (s *Session) EnableDefault(ctx context.Context, lang string) (out Outcome, err error) {
	ctx, span := s.startSpan(ctx, FlowEnableDefault, lang)
	defer span.End()
	defer func() { s.record(span, FlowEnableDefault, err) }()

	s.mu.Lock()
	if err := s.beginLocked(); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	if s.busyLocked(lang) {
		s.mu.Unlock()
		return Outcome{}, ErrLanguageBusy
	}
	entry, offered := s.index.Lookup(lang)
	if !offered || s.working.Has(lang) {
		s.mu.Unlock()
		return Outcome{}, &ValidationError{Lang: lang, Message: fmt.Sprintf("%q is not available from the video platform.", lang)}
	}
	token := s.startLocked(lang, FlowEnableDefault)
	s.mu.Unlock()

	resp, callErr := s.handlers.UploadDefaultTranscript(ctx, s.target(), handlers.DefaultTranscriptRequest{
		Lang:   lang,
		Label:  entry.Label,
		URL:    entry.URL,
		Source: model.SourceDefault,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishLocked(lang, token) || s.closed {
		s.logStale(FlowEnableDefault, lang)
		return Outcome{}, ErrStaleResponse
	}
	if callErr != nil {
		s.logger.Warn().Err(callErr).
			Str(xlog.FieldEvent, "transcript.default_upload_failed").
			Str(xlog.FieldLang, lang).
			Msg("default transcript upload failed")
		return Outcome{}, transportError(FlowEnableDefault, lang, callErr)
	}
	if resp.URL == "" {
		return Outcome{}, transportError(FlowEnableDefault, lang, fmt.Errorf("handler returned no url"))
	}
	// The language must still be available; anything else attached it
	// meanwhile and wins.
	if s.working.Has(lang) {
		s.logStale(FlowEnableDefault, lang)
		return Outcome{}, ErrStaleResponse
	}

	label := resp.Label
	if label == "" {
		label = entry.Label
	}
	added := s.working.PushOrReplace(lang, label, resp.URL, model.SourceDefault, "")
	if err := s.persistLocked(); err != nil {
		return Outcome{}, err
	}
	s.logger.Info().
		Str(xlog.FieldEvent, "transcript.default_uploaded").
		Str(xlog.FieldLang, lang).
		Str(xlog.FieldLocator, resp.URL).
		Msg("default transcript enabled")
	return Outcome{Action: FlowEnableDefault, Lang: lang, Added: added, Message: resp.SuccessMessage}, nil
}

// UploadManual validates and submits a file for the slot holding lang. An
// enabled default record for lang is replaced in place by the upload.
func (s *Session) UploadManual(ctx context.Context, lang string, file handlers.ManualFile) (out Outcome, err error) {
	ctx, span := s.startSpan(ctx, FlowUploadManual, lang)
	defer span.End()
	defer func() { s.record(span, FlowUploadManual, err) }()

	if res := upload.Validate(upload.Candidate{
		Filename: file.Filename,
		Size:     int64(len(file.Content)),
		Context:  upload.ContextTranscripts,
	}); !res.Valid {
		metrics.RecordUploadRejected(string(upload.ContextTranscripts))
		return Outcome{}, &ValidationError{Lang: lang, Message: res.Reason}
	}

	s.mu.Lock()
	if err := s.beginLocked(); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	if s.busyLocked(lang) {
		s.mu.Unlock()
		return Outcome{}, ErrLanguageBusy
	}
	if lang == "" || !s.working.Has(lang) {
		s.mu.Unlock()
		return Outcome{}, &ValidationError{Lang: lang, Message: msgSelectFirst}
	}
	token := s.startLocked(lang, FlowUploadManual)
	s.mu.Unlock()

	resp, callErr := s.handlers.SubmitFile(ctx, s.target(), file)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishLocked(lang, token) || s.closed {
		s.logStale(FlowUploadManual, lang)
		return Outcome{}, ErrStaleResponse
	}
	if callErr != nil {
		s.logger.Warn().Err(callErr).
			Str(xlog.FieldEvent, "transcript.manual_upload_failed").
			Str(xlog.FieldLang, lang).
			Msg("manual transcript upload failed")
		return Outcome{}, transportError(FlowUploadManual, lang, callErr)
	}
	if resp.Asset.ID == "" {
		return Outcome{}, transportError(FlowUploadManual, lang, fmt.Errorf("handler returned no asset id"))
	}
	current, ok := s.working.Get(lang)
	if !ok {
		s.logStale(FlowUploadManual, lang)
		return Outcome{}, ErrStaleResponse
	}

	url := resp.URL()
	s.working.PushOrReplace(lang, current.Label, url, model.SourceManual, "")
	if err := s.persistLocked(); err != nil {
		return Outcome{}, err
	}
	s.logger.Info().
		Str(xlog.FieldEvent, "transcript.manual_uploaded").
		Str(xlog.FieldLang, lang).
		Str(xlog.FieldFilename, file.Filename).
		Str(xlog.FieldLocator, url).
		Bool("replaced_default", current.Source == model.SourceDefault).
		Msg("manual transcript uploaded")
	return Outcome{
		Action:  FlowUploadManual,
		Lang:    lang,
		Message: fmt.Sprintf("Successfully uploaded \"%s\".", file.Filename),
	}, nil
}

// Remove detaches lang and invalidates any upload in flight for it.
// Removing a language that is not attached is a no-op.
func (s *Session) Remove(ctx context.Context, lang string) (out Outcome, err error) {
	_, span := s.startSpan(ctx, FlowRemove, lang)
	defer span.End()
	defer func() { s.record(span, FlowRemove, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginLocked(); err != nil {
		return Outcome{}, err
	}

	rec, existed := s.working.Get(lang)
	s.removeLocked(lang)
	if err := s.persistLocked(); err != nil {
		return Outcome{}, err
	}

	out = Outcome{Action: FlowRemove, Lang: lang, Removed: existed}
	if existed && rec.Source == model.SourceDefault {
		if s.index.Has(lang) {
			out.Message = fmt.Sprintf("%s transcripts are successfully removed from the list of enabled ones.", rec.Label)
		} else {
			out.Message = fmt.Sprintf("%s transcripts are removed, but can not be uploaded from the video platform.", rec.Label)
		}
	}
	return out, nil
}

// removeLocked drops the record and any operation in flight for lang.
func (s *Session) removeLocked(lang string) {
	delete(s.inflight, lang)
	if s.working.Remove(lang) {
		s.logger.Info().
			Str(xlog.FieldEvent, "transcript.removed").
			Str(xlog.FieldLang, lang).
			Msg("transcript removed")
	}
}

// ResetDefaults removes every enabled default record and abandons default
// uploads in flight. The languages become available again.
func (s *Session) ResetDefaults(ctx context.Context) (out Outcome, err error) {
	_, span := s.startSpan(ctx, FlowResetDefaults, "")
	defer span.End()
	defer func() { s.record(span, FlowResetDefaults, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginLocked(); err != nil {
		return Outcome{}, err
	}

	for lang, op := range s.inflight {
		if op.flow == FlowEnableDefault {
			delete(s.inflight, lang)
		}
	}
	enabled := model.Enabled(s.working)
	for _, lang := range enabled {
		s.removeLocked(lang)
	}
	if err := s.persistLocked(); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: FlowResetDefaults, Removed: len(enabled) > 0, Langs: enabled}, nil
}

func (s *Session) logStale(flow, lang string) {
	s.logger.Info().
		Str(xlog.FieldEvent, "transcript.stale_discarded").
		Str(xlog.FieldFlow, flow).
		Str(xlog.FieldLang, lang).
		Msg("discarded upload result for a slot that changed in flight")
}
