// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/transcriptd/internal/assets"
	"github.com/ManuGH/transcriptd/internal/captions"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	xlog "github.com/ManuGH/transcriptd/internal/log"
	"github.com/ManuGH/transcriptd/internal/upload"
	"github.com/ManuGH/transcriptd/internal/videoplatform"
)

// Downloader fetches transcript files from the video platform.
type Downloader interface {
	DownloadTranscript(ctx context.Context, url, lang string) ([]byte, error)
}

// AssetStore persists transcript files.
type AssetStore interface {
	Put(ctx context.Context, itemID, filename string, content []byte) (assets.Asset, error)
	Get(ctx context.Context, locator string) (assets.Asset, []byte, error)
}

// Service is the in-process implementation of Handlers.
type Service struct {
	platform Downloader
	assets   AssetStore
}

// NewService wires the handlers. platform may be nil when no video platform
// is connected; default uploads then fail.
func NewService(platform Downloader, store AssetStore) *Service {
	return &Service{platform: platform, assets: store}
}

// UploadDefaultTranscript downloads the platform transcript, converts it to
// WebVTT and stores it as an asset of the item.
func (s *Service) UploadDefaultTranscript(ctx context.Context, target Target, req DefaultTranscriptRequest) (DefaultTranscriptResponse, error) {
	if req.Lang == "" || req.URL == "" {
		return DefaultTranscriptResponse{}, &Error{Status: http.StatusBadRequest, Message: "lang and url are required"}
	}
	if s.platform == nil {
		return DefaultTranscriptResponse{}, &Error{Status: http.StatusServiceUnavailable, Message: "No video platform is connected."}
	}

	raw, err := s.platform.DownloadTranscript(ctx, req.URL, req.Lang)
	if err != nil {
		status := http.StatusBadGateway
		msg := "Failed to fetch the transcript from the video platform."
		if errors.Is(err, videoplatform.ErrTranscriptNotFound) {
			status = http.StatusNotFound
			msg = "The video platform has no transcript at this address."
		}
		return DefaultTranscriptResponse{}, &Error{Status: status, Message: msg, Err: err}
	}

	vtt, err := captions.ToVTT(raw)
	if err != nil {
		return DefaultTranscriptResponse{}, &Error{Status: http.StatusUnprocessableEntity, Message: "The platform transcript is not valid SRT or WebVTT.", Err: err}
	}

	name := DefaultFileName(req.Label, target.VideoID)
	asset, err := s.assets.Put(ctx, target.ItemID, name, vtt)
	if err != nil {
		return DefaultTranscriptResponse{}, &Error{Status: http.StatusInternalServerError, Message: "Failed to store the transcript.", Err: err}
	}

	xlog.FromContext(ctx).Info().
		Str(xlog.FieldEvent, "handler.default_transcript_stored").
		Str(xlog.FieldItemID, target.ItemID).
		Str(xlog.FieldVideoID, target.VideoID).
		Str(xlog.FieldLang, req.Lang).
		Str(xlog.FieldLocator, asset.ID).
		Msg("default transcript stored")

	return DefaultTranscriptResponse{
		Lang:           req.Lang,
		Label:          req.Label,
		URL:            asset.URL(),
		Source:         model.SourceDefault,
		SuccessMessage: fmt.Sprintf("Successfully uploaded \"%s\".", asset.Filename),
	}, nil
}

// SubmitFile stores a manually uploaded transcript file.
func (s *Service) SubmitFile(ctx context.Context, target Target, file ManualFile) (AssetResponse, error) {
	res := upload.Validate(upload.Candidate{
		Filename: file.Filename,
		Size:     int64(len(file.Content)),
		Context:  upload.ContextTranscripts,
	})
	if !res.Valid {
		return AssetResponse{}, &Error{Status: http.StatusUnprocessableEntity, Message: res.Reason}
	}

	asset, err := s.assets.Put(ctx, target.ItemID, file.Filename, file.Content)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, assets.ErrInvalidName) {
			status = http.StatusUnprocessableEntity
		}
		return AssetResponse{}, &Error{Status: status, Message: "Failed to store the uploaded file.", Err: err}
	}
	return AssetResponse{Asset: AssetRef{ID: asset.ID}}, nil
}

// Download returns the stored transcript addressed by locator.
func (s *Service) Download(ctx context.Context, locator string) (assets.Asset, []byte, error) {
	return s.assets.Get(ctx, locator)
}

// DownloadVTT returns the stored transcript converted to WebVTT.
func (s *Service) DownloadVTT(ctx context.Context, locator string) (assets.Asset, []byte, error) {
	asset, raw, err := s.assets.Get(ctx, locator)
	if err != nil {
		return assets.Asset{}, nil, err
	}
	vtt, err := captions.ToVTT(raw)
	if err != nil {
		return assets.Asset{}, nil, err
	}
	return asset, vtt, nil
}
