// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/transcriptd/internal/config"
)

const testCatalog = `videos:
  vid-1:
    - lang: en
      label: English
      url: captions/en.srt
`

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Version = "test"
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.DataDir = dir
	cfg.Store.Backend = config.StoreMemory
	cfg.Store.Path = ""
	cfg.Assets.Dir = filepath.Join(dir, "assets")
	cfg.Platform.CatalogFile = filepath.Join(dir, "catalog.yaml")
	cfg.Cache.Backend = config.CacheMemory
	cfg.Telemetry.Enabled = false
	cfg.Session.SweepInterval = 50 * time.Millisecond

	require.NoError(t, os.WriteFile(cfg.Platform.CatalogFile, []byte(testCatalog), 0o600))
	return cfg
}

func TestServeLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := testConfig(t)
	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, a.watcher, "file provider should be watched")

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	base := "http://" + ln.Addr().String()

	resp, err := client.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Post(base+"/api/v1/items/item-1/sessions", "application/json", strings.NewReader(`{"video_id":"vid-1"}`))
	require.NoError(t, err)
	var body struct {
		ItemID   string `json:"item_id"`
		Platform []struct {
			Lang string `json:"lang"`
		} `json:"platform"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "item-1", body.ItemID)
	require.Len(t, body.Platform, 1)
	assert.Equal(t, "en", body.Platform[0].Lang)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	require.NoError(t, a.Close())
}

func TestNewAppSqliteStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = config.StoreSqlite
	cfg.Store.Path = filepath.Join(cfg.DataDir, "transcripts.db")

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store"`)
	assert.FileExists(t, cfg.Store.Path)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/items/item-1/playback-window", strings.NewReader(`{"start_time":"75"}`))
	req.Header.Set("Content-Type", "application/json")
	a.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"start_time":"00:01:15"`)
}

func TestNewAppRemoteHandlers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Handlers.Mode = config.HandlersRemote
	cfg.Handlers.BaseURL = "http://handlers.invalid/"
	cfg.API.ValidateRequests = false

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/item-1/handlers/upload_default_transcript?video_id=vid-1", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	a.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewAppRejectsUnknownStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "etcd"

	_, err := newApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}
