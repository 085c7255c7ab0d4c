// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads transcriptd configuration with the precedence
// environment > YAML file > defaults, then validates the result.
package config
