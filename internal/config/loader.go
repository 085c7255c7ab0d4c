// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "TRANSCRIPTD_"

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[envPrefix+key] = struct{}{}
	return ParseString(envPrefix+key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[envPrefix+key] = struct{}{}
	return ParseBool(envPrefix+key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[envPrefix+key] = struct{}{}
	return ParseInt(envPrefix+key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[envPrefix+key] = struct{}{}
	return ParseFloat(envPrefix+key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[envPrefix+key] = struct{}{}
	return ParseDuration(envPrefix+key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	resolvePaths(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr: ":8088",
		DataDir:    "./data",
		LogLevel:   "info",
		Store:      StoreConfig{Backend: StoreSqlite},
		Platform: PlatformConfig{
			Provider:         PlatformFile,
			Timeout:          10 * time.Second,
			RateLimit:        5,
			RateBurst:        10,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Cache:    CacheConfig{Backend: CacheMemory, TTL: 10 * time.Minute},
		Handlers: HandlersConfig{Mode: HandlersLocal},
		API: APIConfig{
			RateLimit:        300,
			MaxUploadBytes:   1 << 20,
			ValidateRequests: true,
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}

// loadFile decodes a YAML file onto cfg with STRICT parsing.
// Unknown fields will cause an error to prevent misconfiguration.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}

	cfg.DataDir = expandEnv(cfg.DataDir)
	cfg.Store.Path = expandEnv(cfg.Store.Path)
	cfg.Assets.Dir = expandEnv(cfg.Assets.Dir)
	cfg.Platform.CatalogFile = expandEnv(cfg.Platform.CatalogFile)
	cfg.Platform.Token = expandEnv(cfg.Platform.Token)
	cfg.Cache.RedisPassword = expandEnv(cfg.Cache.RedisPassword)
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.ListenAddr = l.envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DataDir = l.envString("DATA_DIR", cfg.DataDir)
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)

	cfg.Store.Backend = l.envString("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = l.envString("STORE_PATH", cfg.Store.Path)
	cfg.Assets.Dir = l.envString("ASSET_DIR", cfg.Assets.Dir)

	cfg.Platform.Provider = l.envString("PLATFORM_PROVIDER", cfg.Platform.Provider)
	cfg.Platform.BaseURL = l.envString("PLATFORM_BASE_URL", cfg.Platform.BaseURL)
	cfg.Platform.Token = l.envString("PLATFORM_TOKEN", cfg.Platform.Token)
	cfg.Platform.CatalogFile = l.envString("PLATFORM_CATALOG_FILE", cfg.Platform.CatalogFile)
	cfg.Platform.Timeout = l.envDuration("PLATFORM_TIMEOUT", cfg.Platform.Timeout)
	cfg.Platform.RateLimit = l.envFloat("PLATFORM_RATE_LIMIT", cfg.Platform.RateLimit)
	cfg.Platform.RateBurst = l.envInt("PLATFORM_RATE_BURST", cfg.Platform.RateBurst)
	cfg.Platform.BreakerThreshold = l.envInt("PLATFORM_BREAKER_THRESHOLD", cfg.Platform.BreakerThreshold)
	cfg.Platform.BreakerReset = l.envDuration("PLATFORM_BREAKER_RESET", cfg.Platform.BreakerReset)

	cfg.Cache.Backend = l.envString("INDEX_CACHE", cfg.Cache.Backend)
	cfg.Cache.TTL = l.envDuration("INDEX_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("REDIS_DB", cfg.Cache.RedisDB)

	cfg.Handlers.Mode = l.envString("HANDLERS_MODE", cfg.Handlers.Mode)
	cfg.Handlers.BaseURL = l.envString("HANDLERS_BASE_URL", cfg.Handlers.BaseURL)

	cfg.API.RateLimit = l.envInt("RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.MaxUploadBytes = int64(l.envInt("MAX_UPLOAD_BYTES", int(cfg.API.MaxUploadBytes)))
	cfg.API.ValidateRequests = l.envBool("VALIDATE_REQUESTS", cfg.API.ValidateRequests)

	cfg.Session.IdleTimeout = l.envDuration("SESSION_IDLE_TIMEOUT", cfg.Session.IdleTimeout)
	cfg.Session.SweepInterval = l.envDuration("SESSION_SWEEP_INTERVAL", cfg.Session.SweepInterval)

	cfg.Telemetry.Enabled = l.envBool("TRACING_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("TRACING_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TRACING_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TRACING_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString("ENVIRONMENT", cfg.Telemetry.Environment)
}

// resolvePaths fills storage paths that default to locations below DataDir.
func resolvePaths(cfg *AppConfig) {
	if cfg.Store.Path == "" {
		switch cfg.Store.Backend {
		case StoreSqlite:
			cfg.Store.Path = filepath.Join(cfg.DataDir, "transcripts.db")
		case StoreBadger:
			cfg.Store.Path = filepath.Join(cfg.DataDir, "badger")
		}
	}
	if cfg.Assets.Dir == "" {
		cfg.Assets.Dir = filepath.Join(cfg.DataDir, "assets")
	}
	if cfg.Platform.Provider == PlatformFile && cfg.Platform.CatalogFile == "" {
		cfg.Platform.CatalogFile = filepath.Join(cfg.DataDir, "catalog.yaml")
	}
}
