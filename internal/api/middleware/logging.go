// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	xlog "github.com/ManuGH/transcriptd/internal/log"
)

// AccessLog writes one structured line per request. Probe and scrape
// endpoints are logged at debug level.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		logger := xlog.WithComponentFromContext(r.Context(), "api")
		var evt *zerolog.Event
		switch {
		case rec.statusCode >= http.StatusInternalServerError:
			evt = logger.Error()
		case !shouldTrace(r):
			evt = logger.Debug()
		default:
			evt = logger.Info()
		}
		evt.
			Str(xlog.FieldEvent, "http.request").
			Str("method", r.Method).
			Str("route", routeLabel(r)).
			Int("status", rec.statusCode).
			Int("bytes", rec.bytesWritten).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request served")
	})
}
