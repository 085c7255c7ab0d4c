// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/transcriptd/internal/assets"
	"github.com/ManuGH/transcriptd/internal/captions"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/editor"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/store"
	"github.com/ManuGH/transcriptd/internal/handlers"
	xlog "github.com/ManuGH/transcriptd/internal/log"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string             `json:"error"`
	Detail    string             `json:"detail,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
	Slots     []editor.SlotError `json:"slots,omitempty"`
}

// requestError is a malformed request detected by a handler.
type requestError struct {
	detail string
}

func (e *requestError) Error() string { return e.detail }

func badRequest(detail string) error { return &requestError{detail: detail} }

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes the error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	body.RequestID = xlog.RequestIDFromContext(r.Context())

	logger := xlog.WithComponentFromContext(r.Context(), "api")
	evt := logger.Debug()
	if status >= http.StatusInternalServerError {
		evt = logger.Error()
	}
	evt.Err(err).
		Str(xlog.FieldEvent, "request.failed").
		Int("status", status).
		Str("error_code", body.Error).
		Msg("request failed")

	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var (
		reqErr    *requestError
		blocked   *editor.SaveBlockedError
		invalid   *editor.ValidationError
		transport *editor.TransportError
		handler   *handlers.Error
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, errorBody{Error: "invalid_request", Detail: reqErr.detail}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Error: "payload_too_large", Detail: err.Error()}
	case errors.As(err, &blocked):
		return http.StatusUnprocessableEntity, errorBody{Error: "save_blocked", Detail: blocked.Error(), Slots: blocked.Slots}
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, errorBody{
			Error:  "validation_failed",
			Detail: invalid.Message,
			Slots:  []editor.SlotError{{Lang: invalid.Lang, Message: invalid.Message}},
		}
	case errors.Is(err, editor.ErrLanguageBusy):
		return http.StatusConflict, errorBody{Error: "language_busy", Detail: err.Error()}
	case errors.Is(err, editor.ErrStaleResponse):
		return http.StatusConflict, errorBody{Error: "stale_response", Detail: err.Error()}
	case errors.As(err, &transport):
		return http.StatusBadGateway, errorBody{Error: "upstream_failed", Detail: transport.Error()}
	case errors.Is(err, editor.ErrSessionNotFound):
		return http.StatusNotFound, errorBody{Error: "session_not_found", Detail: err.Error()}
	case errors.Is(err, editor.ErrSessionClosed):
		return http.StatusGone, errorBody{Error: "session_closed", Detail: err.Error()}
	case errors.Is(err, editor.ErrUnknownAction):
		return http.StatusBadRequest, errorBody{Error: "unknown_action", Detail: err.Error()}
	case errors.Is(err, model.ErrMalformedField), errors.Is(err, model.ErrUnknownSource):
		return http.StatusUnprocessableEntity, errorBody{Error: "malformed_field", Detail: err.Error()}
	case errors.Is(err, store.ErrInvalidWindow):
		return http.StatusUnprocessableEntity, errorBody{Error: "invalid_window", Detail: err.Error()}
	case errors.As(err, &handler):
		return handler.Status, errorBody{Error: "handler_failed", Detail: handler.Message}
	case errors.Is(err, assets.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not_found", Detail: err.Error()}
	case errors.Is(err, assets.ErrInvalidLocator), errors.Is(err, assets.ErrInvalidName):
		return http.StatusBadRequest, errorBody{Error: "invalid_locator", Detail: err.Error()}
	case errors.Is(err, captions.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, errorBody{Error: "unsupported_format", Detail: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal_error", Detail: "An unexpected error occurred. Please try again later."}
	}
}
