// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package handlers implements the persistence handlers the transcript
// editor depends on: copying a platform transcript into asset storage,
// accepting manually uploaded files, and serving stored transcripts.
package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
)

// DefaultTranscriptRequest asks the handler to copy a platform transcript.
type DefaultTranscriptRequest struct {
	Lang   string       `json:"lang"`
	Label  string       `json:"label"`
	URL    string       `json:"url"`
	Source model.Source `json:"source,omitempty"`
}

// DefaultTranscriptResponse describes the stored copy.
type DefaultTranscriptResponse struct {
	Lang           string       `json:"lang"`
	Label          string       `json:"label"`
	URL            string       `json:"url"`
	Source         model.Source `json:"source"`
	SuccessMessage string       `json:"success_message"`
}

// AssetRef identifies a stored asset.
type AssetRef struct {
	ID string `json:"id"`
}

// AssetResponse is returned by manual file submission.
type AssetResponse struct {
	Asset AssetRef `json:"asset"`
}

// URL derives the stored resource locator from the asset id.
func (r AssetResponse) URL() string {
	return "/" + strings.TrimPrefix(r.Asset.ID, "/")
}

// ManualFile is a file the author uploads for one language.
type ManualFile struct {
	Filename string
	Content  []byte
}

// Target names the content item (and its video) a handler acts on.
type Target struct {
	ItemID  string
	VideoID string
}

// Handlers is the contract the editor uses, served in-process by Service or
// remotely through Client.
type Handlers interface {
	UploadDefaultTranscript(ctx context.Context, target Target, req DefaultTranscriptRequest) (DefaultTranscriptResponse, error)
	SubmitFile(ctx context.Context, target Target, file ManualFile) (AssetResponse, error)
}

// Error is a handler failure with a message meant for the author.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Detail returns the server supplied detail shown next to retry messages.
func (e *Error) Detail() string { return e.Message }

// DefaultFileName is the asset name of a copied platform transcript:
// "<label>_captions_video_<video_id>.vtt" with spaces replaced by "_".
func DefaultFileName(label, videoID string) string {
	return strings.ReplaceAll(fmt.Sprintf("%s_captions_video_%s", label, videoID), " ", "_") + ".vtt"
}

// DownloadLink composes the link that downloads the transcript at locator.
func DownloadLink(handlerBase, locator string) string {
	if locator == "" {
		return ""
	}
	return handlerBase + "?" + locator
}

// RouteTranscriptURL returns the url a player should load: WebVTT files are
// used as is, anything else goes through the conversion handler.
func RouteTranscriptURL(vttHandlerBase, locator string) string {
	if locator == "" {
		return ""
	}
	path := locator
	if u, err := url.Parse(locator); err == nil {
		path = u.Path
	}
	if strings.HasSuffix(strings.ToLower(path), ".vtt") {
		return locator
	}
	return vttHandlerBase + "?" + locator
}
