// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model holds the transcript catalog data model: the ordered set of
// transcripts attached to a content item, the read-only index of what the
// video platform can supply, and the views derived from both.
package model

import "fmt"

// Source tells where an attached transcript came from.
type Source string

const (
	// SourceManual marks a file uploaded by the content author.
	SourceManual Source = "manual"
	// SourceDefault marks a copy fetched from the video platform.
	SourceDefault Source = "default"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceManual || s == SourceDefault
}

// ParseSource maps a persisted source value to a Source. Absent values are
// treated as manual, which is how legacy records were written.
func ParseSource(raw string) (Source, error) {
	if raw == "" {
		return SourceManual, nil
	}
	s := Source(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, raw)
	}
	return s, nil
}

// Record is one attached transcript for one language.
type Record struct {
	Lang   string `json:"lang"`
	Label  string `json:"label"`
	URL    string `json:"url"`
	Source Source `json:"source"`
}

// Pending reports whether the slot still waits for its upload.
func (r Record) Pending() bool {
	return r.URL == ""
}

// complete reports whether every field that must survive persistence is set.
func (r Record) complete() bool {
	return r.Lang != "" && r.Label != "" && r.URL != ""
}
