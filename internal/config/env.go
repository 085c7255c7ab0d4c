// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/transcriptd/internal/log"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability. Values of
// keys that look like secrets are never logged.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue,
		func(v string) (string, bool) { return v, true },
		func(e *zerolog.Event, k, v string) *zerolog.Event {
			if isSensitive(key) {
				return e.Bool("sensitive", true)
			}
			return e.Str(k, v)
		})
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue,
		func(v string) (int, bool) {
			i, err := strconv.Atoi(v)
			return i, err == nil
		},
		func(e *zerolog.Event, k string, v int) *zerolog.Event { return e.Int(k, v) })
}

// ParseDuration reads a duration in Go duration format (e.g. "5s").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue,
		func(v string) (time.Duration, bool) {
			d, err := time.ParseDuration(v)
			return d, err == nil
		},
		func(e *zerolog.Event, k string, v time.Duration) *zerolog.Event { return e.Dur(k, v) })
}

// ParseBool accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue,
		func(v string) (bool, bool) {
			switch strings.ToLower(v) {
			case "true", "1", "yes":
				return true, true
			case "false", "0", "no":
				return false, true
			}
			return false, false
		},
		func(e *zerolog.Event, k string, v bool) *zerolog.Event { return e.Bool(k, v) })
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue,
		func(v string) (float64, bool) {
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		},
		func(e *zerolog.Event, k string, v float64) *zerolog.Event { return e.Float64(k, v) })
}

func parseEnv[T any](
	key string,
	defaultValue T,
	parse func(string) (T, bool),
	field func(*zerolog.Event, string, T) *zerolog.Event,
) T {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok {
		field(logger.Debug().Str("key", key), "default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	if v == "" {
		field(logger.Debug().Str("key", key), "default", defaultValue).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return defaultValue
	}
	parsed, ok := parse(v)
	if !ok {
		ev := logger.Warn().Str("key", key)
		if !isSensitive(key) {
			ev = ev.Str("value", v)
		}
		field(ev, "default", defaultValue).
			Msg("invalid value in environment variable, using default")
		return defaultValue
	}
	field(logger.Debug().Str("key", key), "value", parsed).
		Str("source", "environment").
		Msg("using environment variable")
	return parsed
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "token") || strings.Contains(lower, "password")
}

// expandEnv expands environment variables in the format ${VAR} or $VAR
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
