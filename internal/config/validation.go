// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
)

// Validate checks cross-field consistency. All problems are reported at once.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if cfg.ListenAddr == "" {
		add("listenAddr is required")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		add("logLevel %q: %v", cfg.LogLevel, err)
	}

	switch cfg.Store.Backend {
	case StoreMemory, StoreSqlite, StoreBadger:
	default:
		add("store.backend %q (want memory, sqlite or badger)", cfg.Store.Backend)
	}

	switch cfg.Platform.Provider {
	case PlatformFile:
		if cfg.Platform.CatalogFile == "" {
			add("platform.catalogFile is required for the file provider")
		}
	case PlatformHTTP:
		if err := validateURL(cfg.Platform.BaseURL); err != nil {
			add("platform.baseUrl: %v", err)
		}
	default:
		add("platform.provider %q (want file or http)", cfg.Platform.Provider)
	}
	if cfg.Platform.Timeout <= 0 {
		add("platform.timeout must be positive")
	}
	if cfg.Platform.RateLimit <= 0 || cfg.Platform.RateBurst <= 0 {
		add("platform.rateLimit and platform.rateBurst must be positive")
	}
	if cfg.Platform.BreakerThreshold <= 0 || cfg.Platform.BreakerReset <= 0 {
		add("platform breaker threshold and reset must be positive")
	}

	switch cfg.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if cfg.Cache.RedisAddr == "" {
			add("cache.redisAddr is required for the redis cache")
		}
	default:
		add("cache.backend %q (want memory, redis or none)", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL < 0 {
		add("cache.ttl must not be negative")
	}

	switch cfg.Handlers.Mode {
	case HandlersLocal:
	case HandlersRemote:
		if err := validateURL(cfg.Handlers.BaseURL); err != nil {
			add("handlers.baseUrl: %v", err)
		}
	default:
		add("handlers.mode %q (want local or remote)", cfg.Handlers.Mode)
	}

	if cfg.API.RateLimit <= 0 {
		add("api.rateLimit must be positive")
	}
	if cfg.API.MaxUploadBytes <= 0 {
		add("api.maxUploadBytes must be positive")
	}
	if cfg.Session.IdleTimeout <= 0 || cfg.Session.SweepInterval <= 0 {
		add("session idleTimeout and sweepInterval must be positive")
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Exporter != "grpc" && cfg.Telemetry.Exporter != "http" {
			add("telemetry.exporter %q (want grpc or http)", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			add("telemetry.endpoint is required when tracing is enabled")
		}
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			add("telemetry.samplingRate must be within [0,1]")
		}
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
