// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PlatformEntry is what the video platform offers for one language.
type PlatformEntry struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// PlatformIndex is the read-only map of languages the connected video
// platform can supply. It is captured once when an editing session opens.
type PlatformIndex struct {
	entries map[string]PlatformEntry
}

// NewPlatformIndex copies entries into a new index. Entries with an empty
// language code are ignored.
func NewPlatformIndex(entries map[string]PlatformEntry) PlatformIndex {
	m := make(map[string]PlatformEntry, len(entries))
	for lang, e := range entries {
		if lang == "" {
			continue
		}
		m[lang] = e
	}
	return PlatformIndex{entries: m}
}

// Lookup returns the platform entry for lang.
func (p PlatformIndex) Lookup(lang string) (PlatformEntry, bool) {
	e, ok := p.entries[lang]
	return e, ok
}

// Has reports whether the platform offers lang.
func (p PlatformIndex) Has(lang string) bool {
	_, ok := p.entries[lang]
	return ok
}

// Len returns the number of offered languages.
func (p PlatformIndex) Len() int {
	return len(p.entries)
}

// Langs returns the offered language codes sorted.
func (p PlatformIndex) Langs() []string {
	out := make([]string, 0, len(p.entries))
	for lang := range p.entries {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

type indexEntry struct {
	Lang  string `json:"lang"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// MarshalJSON encodes the index as a list sorted by language.
func (p PlatformIndex) MarshalJSON() ([]byte, error) {
	list := make([]indexEntry, 0, len(p.entries))
	for _, lang := range p.Langs() {
		e := p.entries[lang]
		list = append(list, indexEntry{Lang: lang, Label: e.Label, URL: e.URL})
	}
	return json.Marshal(list)
}

// DecodePlatformIndex parses the form written by MarshalJSON.
func DecodePlatformIndex(data []byte) (PlatformIndex, error) {
	var list []indexEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return PlatformIndex{}, fmt.Errorf("decode platform index: %w", err)
	}
	m := make(map[string]PlatformEntry, len(list))
	for _, e := range list {
		m[e.Lang] = PlatformEntry{Label: e.Label, URL: e.URL}
	}
	return NewPlatformIndex(m), nil
}
