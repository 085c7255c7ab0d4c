// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the effective daemon configuration.
type AppConfig struct {
	Version    string `yaml:"-"`
	ListenAddr string `yaml:"listenAddr"`
	DataDir    string `yaml:"dataDir"`
	LogLevel   string `yaml:"logLevel"`

	Store     StoreConfig     `yaml:"store"`
	Assets    AssetsConfig    `yaml:"assets"`
	Platform  PlatformConfig  `yaml:"platform"`
	Cache     CacheConfig     `yaml:"cache"`
	Handlers  HandlersConfig  `yaml:"handlers"`
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig selects where persisted transcript fields live.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory, sqlite or badger
	Path    string `yaml:"path"`    // defaults below DataDir
}

// AssetsConfig locates stored transcript files.
type AssetsConfig struct {
	Dir string `yaml:"dir"`
}

// PlatformConfig configures the connected video platform.
type PlatformConfig struct {
	Provider         string        `yaml:"provider"` // file or http
	BaseURL          string        `yaml:"baseUrl"`
	Token            string        `yaml:"token"`
	CatalogFile      string        `yaml:"catalogFile"`
	Timeout          time.Duration `yaml:"timeout"`
	RateLimit        float64       `yaml:"rateLimit"` // requests per second
	RateBurst        int           `yaml:"rateBurst"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
}

// CacheConfig configures the platform index cache.
type CacheConfig struct {
	Backend       string        `yaml:"backend"` // memory, redis or none
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDb"`
}

// HandlersConfig selects the persistence handler implementation.
type HandlersConfig struct {
	Mode    string `yaml:"mode"` // local or remote
	BaseURL string `yaml:"baseUrl"`
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	RateLimit        int   `yaml:"rateLimit"` // requests per minute per client IP
	MaxUploadBytes   int64 `yaml:"maxUploadBytes"`
	ValidateRequests bool  `yaml:"validateRequests"`
}

// SessionConfig bounds editing session lifetime.
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc or http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// Store backends.
const (
	StoreMemory = "memory"
	StoreSqlite = "sqlite"
	StoreBadger = "badger"
)

// Platform providers.
const (
	PlatformFile = "file"
	PlatformHTTP = "http"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Handler modes.
const (
	HandlersLocal  = "local"
	HandlersRemote = "remote"
)
