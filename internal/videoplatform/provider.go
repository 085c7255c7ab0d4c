// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package videoplatform talks to the connected video hosting platform: it
// lists the transcript languages a video offers and downloads their files.
package videoplatform

import (
	"context"
	"errors"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
)

var (
	// ErrVideoNotFound is returned when the platform does not know the video.
	ErrVideoNotFound = errors.New("video not found on platform")
	// ErrTranscriptNotFound is returned when a transcript file is missing.
	ErrTranscriptNotFound = errors.New("transcript not found on platform")
	// ErrUpstream wraps unexpected platform responses.
	ErrUpstream = errors.New("video platform unavailable")
)

// maxTranscriptBytes bounds a single downloaded transcript.
const maxTranscriptBytes = 4 << 20

// Provider is a connected video hosting platform.
type Provider interface {
	Name() string
	// ListTranscripts returns the languages the platform offers for videoID.
	ListTranscripts(ctx context.Context, videoID string) (model.PlatformIndex, error)
	// DownloadTranscript fetches the file behind a platform transcript url.
	DownloadTranscript(ctx context.Context, url, lang string) ([]byte, error)
}

// catalogEntry is the wire and file form of one offered transcript.
type catalogEntry struct {
	Lang  string `json:"lang" yaml:"lang"`
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

func indexFromEntries(entries []catalogEntry) model.PlatformIndex {
	m := make(map[string]model.PlatformEntry, len(entries))
	for _, e := range entries {
		if _, dup := m[e.Lang]; dup {
			continue
		}
		m[e.Lang] = model.PlatformEntry{Label: e.Label, URL: e.URL}
	}
	return model.NewPlatformIndex(m)
}

func isPlatformFailure(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, ErrVideoNotFound) &&
		!errors.Is(err, ErrTranscriptNotFound)
}
