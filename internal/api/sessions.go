// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/editor"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	"github.com/ManuGH/transcriptd/internal/handlers"
)

type openSessionRequest struct {
	VideoID string `json:"video_id"`
}

// sessionResponse is the wire form of editor.Snapshot.
type sessionResponse struct {
	SessionID openapi_types.UUID    `json:"session_id"`
	ItemID    string                `json:"item_id"`
	VideoID   string                `json:"video_id,omitempty"`
	Slots     []editor.SlotView     `json:"slots"`
	Persisted string                `json:"persisted"`
	Views     model.Views           `json:"views"`
	Platform  []editor.PlatformView `json:"platform"`
	InFlight  []string              `json:"in_flight"`
	Closed    bool                  `json:"closed"`
}

type actionResult struct {
	Outcome editor.Outcome  `json:"outcome"`
	Session sessionResponse `json:"session"`
}

func newSessionResponse(snap editor.Snapshot) sessionResponse {
	return sessionResponse{
		SessionID: uuid.MustParse(snap.SessionID),
		ItemID:    snap.ItemID,
		VideoID:   snap.VideoID,
		Slots:     snap.Slots,
		Persisted: snap.Persisted,
		Views:     snap.Views,
		Platform:  snap.Platform,
		InFlight:  snap.InFlight,
		Closed:    snap.Closed,
	}
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		writeError(w, r, badRequest("item id is required"))
		return
	}

	var req openSessionRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, badRequest("invalid JSON body: "+err.Error()))
			return
		}
	}

	sess, err := s.deps.Sessions.Open(r.Context(), itemID, req.VideoID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess.Snapshot()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess.Snapshot()))
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	out, err := sess.Cancel(r.Context())
	writeOutcome(w, r, sess, out, err)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	out, err := sess.Save(r.Context())
	writeOutcome(w, r, sess, out, err)
}

func (s *Server) handleDispatchAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	// Inline uploads carry base64 content.
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes))
	if err != nil {
		writeError(w, r, err)
		return
	}
	action, err := editor.DecodeAction(raw)
	if err != nil {
		if !errors.Is(err, editor.ErrUnknownAction) {
			err = badRequest(err.Error())
		}
		writeError(w, r, err)
		return
	}
	out, err := sess.Dispatch(r.Context(), action)
	writeOutcome(w, r, sess, out, err)
}

func (s *Server) handleUploadTranscript(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	file, ok := s.readMultipartFile(w, r)
	if !ok {
		return
	}
	lang := r.FormValue("lang")
	out, err := sess.UploadManual(r.Context(), lang, file)
	writeOutcome(w, r, sess, out, err)
}

// lookupSession resolves the sessionID path parameter.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, editor.ErrSessionNotFound)
		return nil, false
	}
	sess, err := s.deps.Sessions.Get(id.String())
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

// writeOutcome writes the result of a session operation together with the
// state it left the session in.
func writeOutcome(w http.ResponseWriter, r *http.Request, sess *editor.Session, out editor.Outcome, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResult{Outcome: out, Session: newSessionResponse(sess.Snapshot())})
}

// readMultipartFile reads the "file" part of a multipart upload. The body
// is capped at MaxUploadBytes; the content size rule itself is enforced by
// the upload validator.
func (s *Server) readMultipartFile(w http.ResponseWriter, r *http.Request) (handlers.ManualFile, bool) {
	if r.ContentLength > s.cfg.MaxUploadBytes {
		writeError(w, r, &http.MaxBytesError{Limit: s.cfg.MaxUploadBytes})
		return handlers.ManualFile{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = badRequest("invalid multipart body: " + err.Error())
		}
		writeError(w, r, err)
		return handlers.ManualFile{}, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest("file part is required"))
		return handlers.ManualFile{}, false
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		writeError(w, r, err)
		return handlers.ManualFile{}, false
	}
	return handlers.ManualFile{Filename: hdr.Filename, Content: content}, true
}
