// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"fmt"
	"sort"
)

// Available returns the platform languages not yet attached, sorted.
func Available(idx PlatformIndex, set *Set) []string {
	out := make([]string, 0, idx.Len())
	for _, lang := range idx.Langs() {
		if !set.Has(lang) {
			out = append(out, lang)
		}
	}
	return out
}

// Enabled returns the attached platform-sourced languages, sorted.
func Enabled(set *Set) []string {
	out := make([]string, 0, set.Len())
	for _, r := range set.records {
		if r.Source == SourceDefault {
			out = append(out, r.Lang)
		}
	}
	sort.Strings(out)
	return out
}

// Disabled returns every attached language, sorted. Selectors offering a new
// language must exclude these.
func Disabled(set *Set) []string {
	out := set.Langs()
	sort.Strings(out)
	return out
}

// Views is a point-in-time snapshot of the derived views.
type Views struct {
	Available []string `json:"available"`
	Enabled   []string `json:"enabled"`
	Disabled  []string `json:"disabled"`
}

// Derive computes all views from the current state.
func Derive(idx PlatformIndex, set *Set) Views {
	return Views{
		Available: Available(idx, set),
		Enabled:   Enabled(set),
		Disabled:  Disabled(set),
	}
}

// CheckInvariants verifies the catalog invariants: unique languages,
// enabled languages backed by the platform index, and available languages
// disjoint from the attached ones.
func CheckInvariants(idx PlatformIndex, set *Set) error {
	seen := make(map[string]struct{}, set.Len())
	for _, r := range set.records {
		if _, dup := seen[r.Lang]; dup {
			return fmt.Errorf("duplicate language %q", r.Lang)
		}
		seen[r.Lang] = struct{}{}
	}
	for _, lang := range Enabled(set) {
		if !idx.Has(lang) {
			return fmt.Errorf("enabled language %q missing from platform index", lang)
		}
	}
	for _, lang := range Available(idx, set) {
		if _, attached := seen[lang]; attached {
			return fmt.Errorf("available language %q is attached", lang)
		}
	}
	return nil
}
