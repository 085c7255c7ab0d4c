// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package editor

import (
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/model"
)

// Reassignment is the result of changing a slot's language.
type Reassignment struct {
	// RemoveSlot asks the caller to remove the old language instead.
	RemoveSlot bool
	// Added is true when a new slot was created.
	Added bool
	// Unchanged is true when nothing had to be done.
	Unchanged bool
}

// Reassign applies a language selector change on the slot currently holding
// oldLang (empty for a fresh slot). The new slot is manual and keeps any
// url the old slot already had.
func Reassign(set *model.Set, oldLang, newLang, label string) (Reassignment, error) {
	switch {
	case newLang == "":
		if oldLang == "" {
			return Reassignment{Unchanged: true}, nil
		}
		return Reassignment{RemoveSlot: true}, nil
	case newLang == oldLang:
		return Reassignment{Unchanged: true}, nil
	case set.Has(newLang):
		return Reassignment{}, &ValidationError{Lang: newLang, Message: msgLanguageInUse}
	}
	added := set.PushOrReplace(newLang, label, "", model.SourceManual, oldLang)
	return Reassignment{Added: added}, nil
}
