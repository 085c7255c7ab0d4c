// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/transcriptd/internal/assets"
	"github.com/ManuGH/transcriptd/internal/handlers"
)

var errHandlersUnavailable = &handlers.Error{
	Status:  http.StatusServiceUnavailable,
	Message: "Transcript handlers are not served by this instance.",
}

func (s *Server) handleUploadDefaultTranscript(w http.ResponseWriter, r *http.Request) {
	if s.deps.Handlers == nil {
		writeError(w, r, errHandlersUnavailable)
		return
	}

	var req handlers.DefaultTranscriptRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid JSON body: "+err.Error()))
		return
	}
	target := handlers.Target{
		ItemID:  chi.URLParam(r, "itemID"),
		VideoID: r.URL.Query().Get("video_id"),
	}

	resp, err := s.deps.Handlers.UploadDefaultTranscript(r.Context(), target, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitAsset(w http.ResponseWriter, r *http.Request) {
	if s.deps.Handlers == nil {
		writeError(w, r, errHandlersUnavailable)
		return
	}
	file, ok := s.readMultipartFile(w, r)
	if !ok {
		return
	}

	target := handlers.Target{ItemID: chi.URLParam(r, "itemID")}
	resp, err := s.deps.Handlers.SubmitFile(r.Context(), target, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownloadTranscript(w http.ResponseWriter, r *http.Request) {
	if s.deps.Handlers == nil {
		writeError(w, r, errHandlersUnavailable)
		return
	}
	locator, err := locatorFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, content, err := s.deps.Handlers.Download(r.Context(), locator)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": asset.Filename}))
	writeTranscript(w, asset, contentTypeFor(asset.Filename), content)
}

func (s *Server) handleTranscriptVTT(w http.ResponseWriter, r *http.Request) {
	if s.deps.Handlers == nil {
		writeError(w, r, errHandlersUnavailable)
		return
	}
	locator, err := locatorFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset, content, err := s.deps.Handlers.DownloadVTT(r.Context(), locator)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTranscript(w, asset, contentTypeVTT, content)
}

// locatorFromQuery reads the asset locator carried as the raw query string.
// Path unescaping keeps the '+' separators of the locator intact.
func locatorFromQuery(r *http.Request) (string, error) {
	raw := r.URL.RawQuery
	if raw == "" {
		return "", badRequest("transcript locator is required")
	}
	locator, err := url.PathUnescape(raw)
	if err != nil {
		return "", badRequest("transcript locator is not properly escaped")
	}
	if _, _, err := assets.ParseLocator(locator); err != nil {
		return "", err
	}
	return locator, nil
}

const contentTypeVTT = "text/vtt; charset=utf-8"

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".vtt":
		return contentTypeVTT
	case ".srt":
		return "application/x-subrip"
	default:
		return "application/octet-stream"
	}
}

func writeTranscript(w http.ResponseWriter, asset assets.Asset, contentType string, content []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	if !asset.ModTime.IsZero() {
		w.Header().Set("Last-Modified", asset.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
