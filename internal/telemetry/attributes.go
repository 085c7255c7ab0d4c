// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for consistent tracing across the application.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	SessionIDKey = "transcript.session_id"
	ItemIDKey    = "transcript.item_id"
	VideoIDKey   = "transcript.video_id"
	LangKey      = "transcript.lang"
	SourceKey    = "transcript.source"
	FlowKey      = "transcript.flow"
	ProviderKey  = "platform.provider"
	IndexSizeKey = "platform.index_size"
	CacheHitKey  = "platform.cache_hit"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// TranscriptAttributes describes the transcript slot an operation touches.
func TranscriptAttributes(sessionID, itemID, lang, flow string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(SessionIDKey, sessionID),
		attribute.String(ItemIDKey, itemID),
		attribute.String(LangKey, lang),
		attribute.String(FlowKey, flow),
	}
}

// RecordError marks span as failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errType != "" {
		span.SetAttributes(attribute.String(ErrorTypeKey, errType))
	}
}
