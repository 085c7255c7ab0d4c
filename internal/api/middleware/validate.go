// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"

	xlog "github.com/ManuGH/transcriptd/internal/log"
)

// ValidateRequests rejects requests that do not conform to doc with 400.
// Requests for paths doc does not declare fall through to the router.
// Only JSON bodies are checked; multipart uploads are validated by handlers.
func ValidateRequests(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	withBody := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}
	withoutBody := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		ExcludeRequestBody: true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			opts := withoutBody
			if isJSON(r) {
				opts = withBody
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger := xlog.WithComponentFromContext(r.Context(), "api")
				logger.Debug().
					Str(xlog.FieldEvent, "request.invalid").
					Str("operation", route.Operation.OperationID).
					Err(err).
					Msg("request rejected by contract validation")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":      "invalid_request",
					"detail":     err.Error(),
					"request_id": xlog.RequestIDFromContext(r.Context()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func isJSON(r *http.Request) bool {
	if r.ContentLength == 0 && r.Header.Get("Content-Type") == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
