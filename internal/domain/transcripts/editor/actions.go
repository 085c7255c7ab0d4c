// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ManuGH/transcriptd/internal/handlers"
)

// Action is a user intent. The set of variants is closed.
type Action interface {
	actionType() string
}

// SelectLanguage changes a slot's language (OldLang empty creates a slot,
// NewLang empty removes it).
type SelectLanguage struct {
	OldLang string
	NewLang string
	Label   string
}

// EnableDefault attaches the platform transcript for Lang.
type EnableDefault struct {
	Lang string
}

// UploadManual uploads File for the slot holding Lang.
type UploadManual struct {
	Lang string
	File handlers.ManualFile
}

// RemoveTranscript detaches Lang.
type RemoveTranscript struct {
	Lang string
}

// ResetDefaults detaches every enabled default transcript.
type ResetDefaults struct{}

// Save flushes the session to the persisted field.
type Save struct{}

// Cancel discards the session.
type Cancel struct{}

func (SelectLanguage) actionType() string   { return FlowSelectLanguage }
func (EnableDefault) actionType() string    { return FlowEnableDefault }
func (UploadManual) actionType() string     { return FlowUploadManual }
func (RemoveTranscript) actionType() string { return FlowRemove }
func (ResetDefaults) actionType() string    { return FlowResetDefaults }
func (Save) actionType() string             { return FlowSave }
func (Cancel) actionType() string           { return FlowCancel }

// ActionType returns the wire name of a.
func ActionType(a Action) string { return a.actionType() }

// Outcome reports what an action did.
type Outcome struct {
	Action  string   `json:"action"`
	Lang    string   `json:"lang,omitempty"`
	Langs   []string `json:"langs,omitempty"`
	Added   bool     `json:"added,omitempty"`
	Removed bool     `json:"removed,omitempty"`
	Message string   `json:"message,omitempty"`
	Closed  bool     `json:"closed,omitempty"`
}

// Dispatch routes a to the session operation that handles it.
func (s *Session) Dispatch(ctx context.Context, a Action) (Outcome, error) {
	switch a := a.(type) {
	case SelectLanguage:
		return s.SelectLanguage(ctx, a.OldLang, a.NewLang, a.Label)
	case EnableDefault:
		return s.EnableDefault(ctx, a.Lang)
	case UploadManual:
		return s.UploadManual(ctx, a.Lang, a.File)
	case RemoveTranscript:
		return s.Remove(ctx, a.Lang)
	case ResetDefaults:
		return s.ResetDefaults(ctx)
	case Save:
		return s.Save(ctx)
	case Cancel:
		return s.Cancel(ctx)
	default:
		return Outcome{}, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}

// envelope is the JSON form of an action: {"type": "...", ...}.
type envelope struct {
	Type     string `json:"type"`
	Lang     string `json:"lang,omitempty"`
	OldLang  string `json:"old_lang,omitempty"`
	NewLang  string `json:"new_lang,omitempty"`
	Label    string `json:"label,omitempty"`
	Filename string `json:"filename,omitempty"`
	Content  []byte `json:"content,omitempty"` // base64 in JSON
}

// DecodeAction parses a JSON action envelope.
func DecodeAction(raw []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	switch env.Type {
	case FlowSelectLanguage:
		return SelectLanguage{OldLang: env.OldLang, NewLang: env.NewLang, Label: env.Label}, nil
	case FlowEnableDefault:
		return EnableDefault{Lang: env.Lang}, nil
	case FlowUploadManual:
		return UploadManual{Lang: env.Lang, File: handlers.ManualFile{Filename: env.Filename, Content: env.Content}}, nil
	case FlowRemove:
		return RemoveTranscript{Lang: env.Lang}, nil
	case FlowResetDefaults:
		return ResetDefaults{}, nil
	case FlowSave:
		return Save{}, nil
	case FlowCancel:
		return Cancel{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}
}

// EncodeAction renders a as its JSON envelope.
func EncodeAction(a Action) ([]byte, error) {
	env := envelope{Type: a.actionType()}
	switch a := a.(type) {
	case SelectLanguage:
		env.OldLang, env.NewLang, env.Label = a.OldLang, a.NewLang, a.Label
	case EnableDefault:
		env.Lang = a.Lang
	case UploadManual:
		env.Lang, env.Filename, env.Content = a.Lang, a.File.Filename, a.File.Content
	case RemoveTranscript:
		env.Lang = a.Lang
	}
	return json.Marshal(env)
}
