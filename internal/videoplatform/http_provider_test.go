// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package videoplatform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/transcriptd/internal/resilience"
)

func newPlatformServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /videos/{id}/transcripts", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.PathValue("id") {
		case "vid-1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"transcripts":[
				{"lang":"en","label":"English","url":"/files/en.srt"},
				{"lang":"uk","label":"Ukrainian","url":"/files/uk.srt"}]}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("GET /files/en.srt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestHTTPProvider_ListTranscripts(t *testing.T) {
	srv, _ := newPlatformServer(t)
	p, err := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, Token: "secret", Timeout: time.Second})
	require.NoError(t, err)

	idx, err := p.ListTranscripts(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "uk"}, idx.Langs())
	e, ok := idx.Lookup("uk")
	require.True(t, ok)
	assert.Equal(t, "Ukrainian", e.Label)

	_, err = p.ListTranscripts(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestHTTPProvider_DownloadResolvesRelativeURL(t *testing.T) {
	srv, _ := newPlatformServer(t)
	p, err := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, Token: "secret"})
	require.NoError(t, err)

	raw, err := p.DownloadTranscript(context.Background(), "/files/en.srt", "en")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Hello")

	_, err = p.DownloadTranscript(context.Background(), "/files/fr.srt", "fr")
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
}

func TestHTTPProvider_BreakerOpensOnUpstreamFailures(t *testing.T) {
	srv, calls := newPlatformServer(t)
	p, err := NewHTTPProvider(HTTPConfig{
		BaseURL:          srv.URL,
		Token:            "secret",
		BreakerThreshold: 2,
		BreakerReset:     time.Minute,
	})
	require.NoError(t, err)

	for range 2 {
		_, err := p.ListTranscripts(context.Background(), "broken")
		assert.ErrorIs(t, err, ErrUpstream)
	}
	_, err = p.ListTranscripts(context.Background(), "broken")
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPProvider_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv, _ := newPlatformServer(t)
	p, err := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, Token: "secret", BreakerThreshold: 1})
	require.NoError(t, err)

	for range 3 {
		_, err := p.ListTranscripts(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrVideoNotFound)
	}
	_, err = p.ListTranscripts(context.Background(), "vid-1")
	assert.NoError(t, err)
}

func TestNewHTTPProvider_RejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTPProvider(HTTPConfig{BaseURL: "not a url"})
	assert.Error(t, err)
}
