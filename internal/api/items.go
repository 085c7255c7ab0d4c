// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/store"
	"github.com/ManuGH/transcriptd/internal/handlers"
)

var errItemsUnavailable = &handlers.Error{
	Status:  http.StatusServiceUnavailable,
	Message: "Item storage is not configured on this instance.",
}

type playbackWindowRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type playbackWindowResponse struct {
	ItemID string `json:"item_id"`
	store.PlaybackWindow
}

func (s *Server) handleGetPlaybackWindow(w http.ResponseWriter, r *http.Request) {
	if s.deps.Items == nil {
		writeError(w, r, errItemsUnavailable)
		return
	}
	itemID := chi.URLParam(r, "itemID")
	item, err := s.deps.Items.GetItem(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item == nil {
		item = &store.Item{ItemID: itemID}
	}
	writeJSON(w, http.StatusOK, playbackWindowResponse{ItemID: itemID, PlaybackWindow: item.Window()})
}

func (s *Server) handleSetPlaybackWindow(w http.ResponseWriter, r *http.Request) {
	if s.deps.Items == nil {
		writeError(w, r, errItemsUnavailable)
		return
	}

	var req playbackWindowRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid JSON body: "+err.Error()))
		return
	}
	window, err := store.NewPlaybackWindow(req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, r, err)
		return
	}

	itemID := chi.URLParam(r, "itemID")
	item, err := store.SetWindow(r.Context(), s.deps.Items, itemID, window, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playbackWindowResponse{ItemID: item.ItemID, PlaybackWindow: item.Window()})
}
