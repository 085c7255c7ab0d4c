// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStaleResponse means an upload finished after its slot changed; the
	// result was discarded.
	ErrStaleResponse = errors.New("the transcript slot changed while the upload was in progress; result discarded")
	// ErrLanguageBusy rejects a second operation on a language that already
	// has one in flight.
	ErrLanguageBusy = errors.New("another operation for this language is still in progress")
	// ErrSessionClosed is returned once a session was saved or cancelled.
	ErrSessionClosed = errors.New("editing session is closed")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("editing session not found")
	// ErrUnknownAction is returned by DecodeAction and Dispatch.
	ErrUnknownAction = errors.New("unknown action")
)

// Messages shown to the author.
const (
	msgRetry          = "This may be happening because of an error with our server or your internet connection. Try refreshing the page or making sure you are online."
	msgPendingSlot    = "Please upload the transcript file for this language or remove the language."
	msgUploadInFlight = "Please wait until the upload for this language has finished."
	msgLanguageInUse  = "This language is already in use. Please select another one."
	msgSelectFirst    = "Please select a language before uploading a file."
)

// ValidationError is a slot-local failure detected before any network call.
type ValidationError struct {
	Lang    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Lang == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Lang, e.Message)
}

// TransportError is a failed handler call. The session is left unchanged.
type TransportError struct {
	Flow   string
	Lang   string
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Detail == "" {
		return msgRetry
	}
	return msgRetry + " " + e.Detail
}

func (e *TransportError) Unwrap() error { return e.Err }

// SlotError is one reason a save was blocked.
type SlotError struct {
	Lang    string `json:"lang"`
	Message string `json:"message"`
}

// SaveBlockedError lists every slot that prevents saving.
type SaveBlockedError struct {
	Slots []SlotError
}

func (e *SaveBlockedError) Error() string {
	langs := make([]string, 0, len(e.Slots))
	for _, s := range e.Slots {
		langs = append(langs, s.Lang)
	}
	return "save blocked by incomplete transcripts: " + strings.Join(langs, ", ")
}

// detailer is implemented by handler errors carrying a server message.
type detailer interface {
	Detail() string
}

func transportError(flow, lang string, err error) *TransportError {
	te := &TransportError{Flow: flow, Lang: lang, Err: err}
	var d detailer
	if errors.As(err, &d) {
		te.Detail = d.Detail()
	}
	return te
}

// outcomeLabel maps an error to the metrics outcome label.
func outcomeLabel(err error) string {
	var (
		ve *ValidationError
		te *TransportError
		sb *SaveBlockedError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ve), errors.As(err, &sb):
		return "validation"
	case errors.Is(err, ErrLanguageBusy):
		return "busy"
	case errors.Is(err, ErrStaleResponse):
		return "stale"
	case errors.As(err, &te):
		return "transport"
	case errors.Is(err, ErrSessionClosed):
		return "closed"
	default:
		return "error"
	}
}
