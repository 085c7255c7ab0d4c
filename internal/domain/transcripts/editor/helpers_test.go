// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	"github.com/ManuGH/transcriptd/internal/handlers"
)

// fakeHandlers answers handler calls immediately unless a gate is set, in
// which case each call signals started and waits for the gate.
type fakeHandlers struct {
	mu          sync.Mutex
	defaultErr  error
	submitErr   error
	gate        chan struct{}
	started     chan string
	defaultReqs []handlers.DefaultTranscriptRequest
	submitted   []handlers.ManualFile
}

func (f *fakeHandlers) wait(ctx context.Context, lang string) {
	if f.gate == nil {
		return
	}
	f.started <- lang
	select {
	case <-f.gate:
	case <-ctx.Done():
	}
}

func (f *fakeHandlers) UploadDefaultTranscript(ctx context.Context, _ handlers.Target, req handlers.DefaultTranscriptRequest) (handlers.DefaultTranscriptResponse, error) {
	f.mu.Lock()
	f.defaultReqs = append(f.defaultReqs, req)
	err := f.defaultErr
	f.mu.Unlock()

	f.wait(ctx, req.Lang)
	if err != nil {
		return handlers.DefaultTranscriptResponse{}, err
	}
	return handlers.DefaultTranscriptResponse{
		Lang:           req.Lang,
		Label:          req.Label,
		URL:            "/stored/" + req.Lang + ".vtt",
		Source:         model.SourceDefault,
		SuccessMessage: `Successfully uploaded "` + req.Lang + `.vtt".`,
	}, nil
}

func (f *fakeHandlers) SubmitFile(ctx context.Context, _ handlers.Target, file handlers.ManualFile) (handlers.AssetResponse, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, file)
	err := f.submitErr
	f.mu.Unlock()

	f.wait(ctx, file.Filename)
	if err != nil {
		return handlers.AssetResponse{}, err
	}
	return handlers.AssetResponse{Asset: handlers.AssetRef{ID: "manual/" + file.Filename}}, nil
}

func (f *fakeHandlers) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.defaultReqs), len(f.submitted)
}

type recordingSink struct {
	mu     sync.Mutex
	values []string
	err    error
}

func (r *recordingSink) Flush(_ context.Context, _, _, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.values = append(r.values, value)
	return nil
}

func testIndex() model.PlatformIndex {
	return model.NewPlatformIndex(map[string]model.PlatformEntry{
		"en": {Label: "English", URL: "https://platform/en.srt"},
		"fr": {Label: "French", URL: "https://platform/fr.srt"},
		"uk": {Label: "Ukrainian", URL: "https://platform/uk.srt"},
	})
}

func newTestSession(t *testing.T, persisted string, h *fakeHandlers, sink FieldSink) *Session {
	t.Helper()
	s, err := NewSession(Config{
		ItemID:       "item-1",
		VideoID:      "vid-1",
		Persisted:    persisted,
		Index:        testIndex(),
		Handlers:     h,
		Sink:         sink,
		DownloadBase: "/api/v1/transcripts/download",
		VTTBase:      "/api/v1/transcripts/vtt",
	})
	require.NoError(t, err)
	return s
}

func srtFile(name string) handlers.ManualFile {
	return handlers.ManualFile{Filename: name, Content: []byte("1\n00:00:01,000 --> 00:00:02,000\nHi\n")}
}
