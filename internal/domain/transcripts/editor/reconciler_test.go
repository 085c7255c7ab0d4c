// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
)

func TestReassign(t *testing.T) {
	base := func() *model.Set {
		return model.NewSet(
			model.Record{Lang: "en", Label: "English", URL: "U1", Source: model.SourceManual},
			model.Record{Lang: "fr", Label: "French", URL: "U2", Source: model.SourceDefault},
		)
	}

	tests := []struct {
		name             string
		oldLang, newLang string
		want             Reassignment
		wantLangs        []string
		wantErr          bool
	}{
		{name: "clear selector", oldLang: "en", want: Reassignment{RemoveSlot: true}, wantLangs: []string{"en", "fr"}},
		{name: "clear empty slot", want: Reassignment{Unchanged: true}, wantLangs: []string{"en", "fr"}},
		{name: "same language", oldLang: "en", newLang: "en", want: Reassignment{Unchanged: true}, wantLangs: []string{"en", "fr"}},
		{name: "language in use", oldLang: "en", newLang: "fr", wantErr: true, wantLangs: []string{"en", "fr"}},
		{name: "reassign", oldLang: "en", newLang: "uk", want: Reassignment{}, wantLangs: []string{"uk", "fr"}},
		{name: "new slot", newLang: "de", want: Reassignment{Added: true}, wantLangs: []string{"en", "fr", "de"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := base()
			got, err := Reassign(set, tt.oldLang, tt.newLang, "Label")
			if tt.wantErr {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.wantLangs, set.Langs())
		})
	}
}

func TestReassign_NewSlotIsPendingManual(t *testing.T) {
	set := model.NewSet()
	_, err := Reassign(set, "", "uk", "Ukrainian")
	require.NoError(t, err)

	rec, ok := set.Get("uk")
	require.True(t, ok)
	assert.True(t, rec.Pending())
	assert.Equal(t, model.SourceManual, rec.Source)
	assert.Equal(t, []SlotError{{Lang: "uk", Message: msgPendingSlot}}, CheckSlots(set))
}
