// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRANSCRIPTD_DATA_DIR", t.TempDir())

	cfg, err := NewLoader("", "v1.0.0").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.0.0", cfg.Version)
	assert.Equal(t, ":8088", cfg.ListenAddr)
	assert.Equal(t, StoreSqlite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(cfg.DataDir, "transcripts.db"), cfg.Store.Path)
	assert.Equal(t, filepath.Join(cfg.DataDir, "assets"), cfg.Assets.Dir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "catalog.yaml"), cfg.Platform.CatalogFile)
	assert.Equal(t, int64(1<<20), cfg.API.MaxUploadBytes)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "config.yaml", `
dataDir: `+dir+`
listenAddr: ":9000"
store:
  backend: badger
platform:
  provider: http
  baseUrl: https://video.example.com
  timeout: 3s
cache:
  backend: memory
  ttl: 1m
`)
	t.Setenv("TRANSCRIPTD_LISTEN_ADDR", ":9100")
	t.Setenv("TRANSCRIPTD_INDEX_CACHE_TTL", "90s")

	l := NewLoader(path, "dev")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.ListenAddr, "env wins over file")
	assert.Equal(t, StoreBadger, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "badger"), cfg.Store.Path)
	assert.Equal(t, PlatformHTTP, cfg.Platform.Provider)
	assert.Equal(t, 3*time.Second, cfg.Platform.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Contains(t, l.ConsumedEnvKeys, "TRANSCRIPTD_LISTEN_ADDR")
}

func TestLoad_StrictUnknownField(t *testing.T) {
	path := writeConfig(t, "config.yaml", "listenAddr: \":1\"\nbogus: true\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), err.Error())
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "config.yaml", "listenAddr: \":1\"\n---\nlistenAddr: \":2\"\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := writeConfig(t, "config.json", "{}")
	_, err := NewLoader(path, "").Load()
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	t.Setenv("TRANSCRIPTD_DATA_DIR", t.TempDir())
	path := writeConfig(t, "config.yml", "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, ":8088", cfg.ListenAddr)
}

func TestValidate(t *testing.T) {
	base := Defaults()
	base.Platform.CatalogFile = "/tmp/catalog.yaml"
	require.NoError(t, Validate(base))

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"bad store", func(c *AppConfig) { c.Store.Backend = "bolt" }, "store.backend"},
		{"http without url", func(c *AppConfig) { c.Platform.Provider = PlatformHTTP }, "platform.baseUrl"},
		{"redis without addr", func(c *AppConfig) { c.Cache.Backend = CacheRedis }, "cache.redisAddr"},
		{"remote handlers bad scheme", func(c *AppConfig) {
			c.Handlers.Mode = HandlersRemote
			c.Handlers.BaseURL = "ftp://x"
		}, "handlers.baseUrl"},
		{"tracing without endpoint", func(c *AppConfig) { c.Telemetry.Enabled = true }, "telemetry.endpoint"},
		{"bad log level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
