// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID     = "session_id"
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldItemID        = "item_id"
	FieldVideoID       = "video_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldFlow      = "flow"
	FieldOutcome   = "outcome"

	// Transcript fields
	FieldLang     = "lang"
	FieldOldLang  = "old_lang"
	FieldSource   = "source"
	FieldFilename = "filename"
	FieldLocator  = "locator"

	// Platform fields
	FieldProvider = "provider"
	FieldBaseURL  = "base_url"
	FieldPath     = "path"
)
