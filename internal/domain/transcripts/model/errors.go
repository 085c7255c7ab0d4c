// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "errors"

var (
	// ErrUnknownSource is returned when a persisted record names a source other than manual or default.
	ErrUnknownSource = errors.New("unknown transcript source")
	// ErrMalformedField is returned when the persisted transcripts value is not a JSON array of records.
	ErrMalformedField = errors.New("malformed transcripts field")
)
