// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	"github.com/ManuGH/transcriptd/internal/handlers"
)

const mixedField = `[{"lang":"en","label":"English","url":"/u/en.vtt"},{"lang":"fr","label":"French","url":"/u/fr.vtt","source":"default"}]`

func TestNewSession_HydratesAndDerivesViews(t *testing.T) {
	s := newTestSession(t, mixedField, &fakeHandlers{}, nil)
	snap := s.Snapshot()

	want := model.Views{Available: []string{"uk"}, Enabled: []string{"fr"}, Disabled: []string{"en", "fr"}}
	if diff := cmp.Diff(want, snap.Views); diff != "" {
		t.Errorf("views mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, snap.Slots, 2)
	assert.Equal(t, model.SourceManual, snap.Slots[0].Source)
	assert.Equal(t, "/api/v1/transcripts/download?/u/en.vtt", snap.Slots[0].DownloadURL)
	assert.Len(t, snap.Platform, 3)
}

func TestNewSession_RejectsMalformedField(t *testing.T) {
	_, err := NewSession(Config{ItemID: "i", Persisted: "{", Handlers: &fakeHandlers{}})
	assert.ErrorIs(t, err, model.ErrMalformedField)
}

func TestEnableDefault_MovesLanguageFromAvailableToEnabled(t *testing.T) {
	h := &fakeHandlers{}
	s := newTestSession(t, mixedField, h, nil)

	out, err := s.EnableDefault(context.Background(), "uk")
	require.NoError(t, err)
	assert.True(t, out.Added)
	assert.Equal(t, `Successfully uploaded "uk.vtt".`, out.Message)

	snap := s.Snapshot()
	assert.Empty(t, snap.Views.Available)
	assert.Equal(t, []string{"fr", "uk"}, snap.Views.Enabled)
	assert.Contains(t, snap.Persisted, `{"lang":"uk","label":"Ukrainian","url":"/stored/uk.vtt","source":"default"}`)

	require.Len(t, h.defaultReqs, 1)
	assert.Equal(t, "https://platform/uk.srt", h.defaultReqs[0].URL)
	require.NoError(t, model.CheckInvariants(testIndex(), s.working))
}

func TestEnableDefault_UnavailableLanguageIsValidationError(t *testing.T) {
	h := &fakeHandlers{}
	s := newTestSession(t, mixedField, h, nil)

	for _, lang := range []string{"fr", "de"} {
		_, err := s.EnableDefault(context.Background(), lang)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), lang)
		assert.Equal(t, lang, ve.Lang)
	}
	d, _ := h.calls()
	assert.Zero(t, d, "validation must not reach the handler")
}

func TestEnableDefault_TransportFailureLeavesStateUnchanged(t *testing.T) {
	h := &fakeHandlers{defaultErr: &handlers.Error{Status: 502, Message: "Platform timed out."}}
	s := newTestSession(t, mixedField, h, nil)
	before := s.Persisted()

	_, err := s.EnableDefault(context.Background(), "uk")
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Platform timed out.", te.Detail)
	assert.True(t, strings.HasPrefix(te.Error(), msgRetry))
	assert.True(t, strings.HasSuffix(te.Error(), "Platform timed out."))

	assert.Equal(t, before, s.Persisted())
	assert.Equal(t, []string{"uk"}, s.Snapshot().Views.Available)
	assert.Empty(t, s.Snapshot().InFlight)

	h.defaultErr = nil
	_, err = s.EnableDefault(context.Background(), "uk")
	require.NoError(t, err, "failures must leave the operation retryable")
}

func TestSelectLanguage_ReassignmentKeepsSingleRecord(t *testing.T) {
	s := newTestSession(t, `[{"lang":"en","label":"English","url":"U1","source":"manual"}]`, &fakeHandlers{}, nil)

	out, err := s.SelectLanguage(context.Background(), "en", "uk", "Ukrainian")
	require.NoError(t, err)
	assert.False(t, out.Added)

	want := []model.Record{{Lang: "uk", Label: "Ukrainian", URL: "U1", Source: model.SourceManual}}
	assert.Equal(t, want, s.working.Records())
}

func TestSelectLanguage_Cases(t *testing.T) {
	s := newTestSession(t, mixedField, &fakeHandlers{}, nil)
	ctx := context.Background()

	_, err := s.SelectLanguage(ctx, "en", "fr", "French")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, msgLanguageInUse, ve.Message)

	out, err := s.SelectLanguage(ctx, "en", "en", "English")
	require.NoError(t, err)
	assert.False(t, out.Added)

	out, err = s.SelectLanguage(ctx, "", "de", "German")
	require.NoError(t, err)
	assert.True(t, out.Added)
	assert.NotContains(t, s.Persisted(), `"de"`, "pending slots stay out of the persisted value")

	out, err = s.SelectLanguage(ctx, "de", "", "")
	require.NoError(t, err)
	assert.True(t, out.Removed)
	assert.False(t, s.working.Has("de"))
}

func TestSaveGate_PendingSlotBlocksUntilUploaded(t *testing.T) {
	sink := &recordingSink{}
	s := newTestSession(t, "", &fakeHandlers{}, sink)
	ctx := context.Background()

	_, err := s.SelectLanguage(ctx, "", "uk", "Ukrainian")
	require.NoError(t, err)

	_, err = s.Save(ctx)
	var blocked *SaveBlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, []SlotError{{Lang: "uk", Message: msgPendingSlot}}, blocked.Slots)
	assert.False(t, s.Closed())
	assert.Empty(t, sink.values)

	_, err = s.UploadManual(ctx, "uk", srtFile("uk.srt"))
	require.NoError(t, err)
	assert.Empty(t, s.Validate())

	out, err := s.Save(ctx)
	require.NoError(t, err)
	assert.True(t, out.Closed)
	require.Len(t, sink.values, 1)
	assert.Equal(t, `[{"lang":"uk","label":"Ukrainian","url":"/manual/uk.srt","source":"manual"}]`, sink.values[0])

	_, err = s.Remove(ctx, "uk")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSave_SinkFailureKeepsSessionOpen(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	s := newTestSession(t, mixedField, &fakeHandlers{}, sink)

	_, err := s.Save(context.Background())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.False(t, s.Closed())

	sink.err = nil
	_, err = s.Save(context.Background())
	require.NoError(t, err)
}

func TestUploadManual_InvalidFileNeverReachesHandler(t *testing.T) {
	h := &fakeHandlers{}
	s := newTestSession(t, mixedField, h, nil)

	_, err := s.UploadManual(context.Background(), "en", handlers.ManualFile{Filename: "notes.pdf", Content: []byte("x")})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Message, `Couldn't upload "notes.pdf".`)

	_, err = s.UploadManual(context.Background(), "en", handlers.ManualFile{Filename: "big.srt", Content: make([]byte, 400*1024)})
	require.True(t, errors.As(err, &ve))

	_, err = s.UploadManual(context.Background(), "de", srtFile("de.srt"))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, msgSelectFirst, ve.Message)

	_, submitted := h.calls()
	assert.Zero(t, submitted)
}

func TestUploadManual_ReplacesEnabledDefaultInPlace(t *testing.T) {
	s := newTestSession(t, mixedField, &fakeHandlers{}, nil)

	_, err := s.UploadManual(context.Background(), "fr", srtFile("fr.srt"))
	require.NoError(t, err)

	want := []model.Record{
		{Lang: "en", Label: "English", URL: "/u/en.vtt", Source: model.SourceManual},
		{Lang: "fr", Label: "French", URL: "/manual/fr.srt", Source: model.SourceManual},
	}
	assert.Equal(t, want, s.working.Records())
	snap := s.Snapshot()
	assert.Empty(t, snap.Views.Enabled)
	assert.Equal(t, []string{"uk"}, snap.Views.Available, "fr stays attached, so it is not available")
	assert.Equal(t, "/u/en.vtt", snap.Slots[0].PlayerURL)
	assert.Equal(t, "/api/v1/transcripts/vtt?/manual/fr.srt", snap.Slots[1].PlayerURL)
}

func TestRemove_EnabledDefaultBecomesAvailable(t *testing.T) {
	s := newTestSession(t, mixedField, &fakeHandlers{}, nil)

	out, err := s.Remove(context.Background(), "fr")
	require.NoError(t, err)
	assert.True(t, out.Removed)
	assert.Equal(t, "French transcripts are successfully removed from the list of enabled ones.", out.Message)
	assert.Equal(t, []string{"fr", "uk"}, s.Snapshot().Views.Available)
}

func TestRemove_IsIdempotent(t *testing.T) {
	s := newTestSession(t, mixedField, &fakeHandlers{}, nil)
	before := s.Persisted()

	out, err := s.Remove(context.Background(), "de")
	require.NoError(t, err)
	assert.False(t, out.Removed)
	assert.Equal(t, before, s.Persisted())
}

func TestResetDefaults(t *testing.T) {
	s := newTestSession(t, mixedField, &fakeHandlers{}, nil)
	_, err := s.EnableDefault(context.Background(), "uk")
	require.NoError(t, err)

	out, err := s.ResetDefaults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fr", "uk"}, out.Langs)

	views := s.Snapshot().Views
	assert.Equal(t, []string{"fr", "uk"}, views.Available)
	assert.Empty(t, views.Enabled)
	assert.Equal(t, []string{"en"}, views.Disabled)
}

func TestCancel(t *testing.T) {
	sink := &recordingSink{}
	s := newTestSession(t, mixedField, &fakeHandlers{}, sink)

	out, err := s.Cancel(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Closed)
	assert.Empty(t, sink.values)

	_, err = s.Cancel(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.EnableDefault(context.Background(), "uk")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestLastActiveTracksOperations(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSession(Config{ItemID: "i", Handlers: &fakeHandlers{}, Now: func() time.Time { return now }})
	require.NoError(t, err)
	assert.Equal(t, now, s.LastActive())

	now = now.Add(time.Minute)
	_, err = s.Remove(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, now, s.LastActive())
}
