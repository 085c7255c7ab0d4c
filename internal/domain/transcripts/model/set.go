// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Set is the ordered collection of transcripts attached to a content item,
// unique by language. The zero value is an empty set ready for use.
//
// Set is not safe for concurrent use; the editing session serializes access.
type Set struct {
	records []Record
}

// NewSet builds a set from records, keeping the first record per language.
func NewSet(records ...Record) *Set {
	s := &Set{}
	for _, r := range records {
		if s.index(r.Lang) >= 0 {
			continue
		}
		s.records = append(s.records, r)
	}
	return s
}

// Len returns the number of records.
func (s *Set) Len() int {
	return len(s.records)
}

// Records returns a copy of the records in order.
func (s *Set) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record for lang.
func (s *Set) Get(lang string) (Record, bool) {
	if i := s.index(lang); i >= 0 {
		return s.records[i], true
	}
	return Record{}, false
}

// Has reports whether lang is attached.
func (s *Set) Has(lang string) bool {
	return s.index(lang) >= 0
}

// Langs returns the attached language codes in order.
func (s *Set) Langs() []string {
	out := make([]string, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Lang)
	}
	return out
}

// URLFor returns the stored locator for lang, or "" when the language is not
// attached or its upload is still pending.
func (s *Set) URLFor(lang string) string {
	r, _ := s.Get(lang)
	return r.URL
}

// PushOrReplace updates the first record whose language is oldLang or lang,
// or appends a new record when neither exists. On update lang, label and
// source are always overwritten while url is only overwritten when non-empty.
// It reports whether a record was appended.
//
// An empty oldLang never matches, so a plain push cannot capture a record
// whose language is blank.
func (s *Set) PushOrReplace(lang, label, url string, source Source, oldLang string) bool {
	for i := range s.records {
		r := &s.records[i]
		if (oldLang != "" && r.Lang == oldLang) || r.Lang == lang {
			r.Lang = lang
			r.Label = label
			r.Source = source
			if url != "" {
				r.URL = url
			}
			s.dropDuplicatesOf(i)
			return false
		}
	}
	s.records = append(s.records, Record{Lang: lang, Label: label, URL: url, Source: source})
	return true
}

// dropDuplicatesOf removes every record after keep that shares its language.
func (s *Set) dropDuplicatesOf(keep int) {
	lang := s.records[keep].Lang
	out := s.records[:keep+1]
	for _, r := range s.records[keep+1:] {
		if r.Lang == lang {
			continue
		}
		out = append(out, r)
	}
	s.records = out
}

// Remove deletes the record for lang and reports whether one existed.
func (s *Set) Remove(lang string) bool {
	i := s.index(lang)
	if i < 0 {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return true
}

// Compact drops records with an empty lang, label or url and returns how
// many were dropped.
func (s *Set) Compact() int {
	out := s.records[:0]
	for _, r := range s.records {
		if r.complete() {
			out = append(out, r)
		}
	}
	dropped := len(s.records) - len(out)
	s.records = out
	return dropped
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return &Set{records: s.Records()}
}

// Equal reports whether both sets hold the same records in the same order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.records {
		if s.records[i] != other.records[i] {
			return false
		}
	}
	return true
}

// Serialize renders the set as the persisted JSON array.
func (s *Set) Serialize() (string, error) {
	records := s.records
	if records == nil {
		records = []Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("serialize transcripts: %w", err)
	}
	return string(b), nil
}

type persistedRecord struct {
	Lang   string `json:"lang"`
	Label  string `json:"label"`
	URL    string `json:"url"`
	Source string `json:"source,omitempty"`
}

// Hydrate parses a persisted transcripts value. An empty or null value yields
// an empty set. Records without a source are treated as manual; when a
// language appears twice the first record wins.
func Hydrate(raw string) (*Set, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &Set{}, nil
	}
	var persisted []persistedRecord
	if err := json.Unmarshal(trimmed, &persisted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedField, err)
	}
	records := make([]Record, 0, len(persisted))
	for i, p := range persisted {
		src, err := ParseSource(p.Source)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, p.Lang, err)
		}
		records = append(records, Record{Lang: p.Lang, Label: p.Label, URL: p.URL, Source: src})
	}
	return NewSet(records...), nil
}

func (s *Set) index(lang string) int {
	for i, r := range s.records {
		if r.Lang == lang {
			return i
		}
	}
	return -1
}
