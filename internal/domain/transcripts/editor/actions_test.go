// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/transcriptd/internal/handlers"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		raw  string
		want Action
	}{
		{`{"type":"select_language","old_lang":"en","new_lang":"uk","label":"Ukrainian"}`, SelectLanguage{OldLang: "en", NewLang: "uk", Label: "Ukrainian"}},
		{`{"type":"enable_default","lang":"fr"}`, EnableDefault{Lang: "fr"}},
		{`{"type":"upload_manual","lang":"uk","filename":"uk.vtt","content":"V0VCVlRUCg=="}`, UploadManual{Lang: "uk", File: handlers.ManualFile{Filename: "uk.vtt", Content: []byte("WEBVTT\n")}}},
		{`{"type":"remove_transcript","lang":"fr"}`, RemoveTranscript{Lang: "fr"}},
		{`{"type":"reset_defaults"}`, ResetDefaults{}},
		{`{"type":"save"}`, Save{}},
		{`{"type":"cancel"}`, Cancel{}},
	}
	for _, tt := range tests {
		t.Run(ActionType(tt.want), func(t *testing.T) {
			got, err := DecodeAction([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			encoded, err := EncodeAction(got)
			require.NoError(t, err)
			again, err := DecodeAction(encoded)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestDecodeAction_Errors(t *testing.T) {
	_, err := DecodeAction([]byte(`{"type":"publish"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = DecodeAction([]byte(`not json`))
	assert.Error(t, err)
}

func TestDispatchRoutesVariants(t *testing.T) {
	s := newTestSession(t, mixedField, &fakeHandlers{}, &recordingSink{})
	ctx := context.Background()

	out, err := s.Dispatch(ctx, EnableDefault{Lang: "uk"})
	require.NoError(t, err)
	assert.Equal(t, FlowEnableDefault, out.Action)

	out, err = s.Dispatch(ctx, RemoveTranscript{Lang: "uk"})
	require.NoError(t, err)
	assert.True(t, out.Removed)

	out, err = s.Dispatch(ctx, SelectLanguage{NewLang: "de", Label: "German"})
	require.NoError(t, err)
	assert.True(t, out.Added)

	out, err = s.Dispatch(ctx, UploadManual{Lang: "de", File: srtFile("de.srt")})
	require.NoError(t, err)
	assert.Equal(t, `Successfully uploaded "de.srt".`, out.Message)

	_, err = s.Dispatch(ctx, ResetDefaults{})
	require.NoError(t, err)

	out, err = s.Dispatch(ctx, Save{})
	require.NoError(t, err)
	assert.True(t, out.Closed)

	_, err = s.Dispatch(ctx, Cancel{})
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = s.Dispatch(ctx, nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
