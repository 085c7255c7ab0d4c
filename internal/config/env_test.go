// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "from-env")
	t.Setenv("TEST_STRING_EMPTY", "")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "forty")
	t.Setenv("TEST_DUR", "1500ms")
	t.Setenv("TEST_BOOL", "Yes")
	t.Setenv("TEST_BOOL_BAD", "maybe")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_TOKEN", "secret")

	assert.Equal(t, "from-env", ParseString("TEST_STRING", "d"))
	assert.Equal(t, "d", ParseString("TEST_STRING_EMPTY", "d"))
	assert.Equal(t, "d", ParseString("TEST_STRING_UNSET", "d"))
	assert.Equal(t, "secret", ParseString("TEST_TOKEN", "d"))
	assert.Equal(t, 42, ParseInt("TEST_INT", 1))
	assert.Equal(t, 1, ParseInt("TEST_INT_BAD", 1))
	assert.Equal(t, 1500*time.Millisecond, ParseDuration("TEST_DUR", time.Second))
	assert.True(t, ParseBool("TEST_BOOL", false))
	assert.True(t, ParseBool("TEST_BOOL_BAD", true))
	assert.InDelta(t, 0.25, ParseFloat("TEST_FLOAT", 1), 1e-9)
}
