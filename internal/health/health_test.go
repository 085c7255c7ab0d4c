// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReady_NoCheckers(t *testing.T) {
	m := NewManager("v1")
	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusHealthy, resp.Status)
}

func TestReady_UnhealthyAndDegraded(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(CheckFunc("store", func(context.Context) error { return nil }))
	m.RegisterChecker(SoftCheckFunc("cache", func(context.Context) error { return errors.New("redis down") }))

	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, "redis down", resp.Checks["cache"].Error)

	m.RegisterChecker(CheckFunc("assets", func(context.Context) error { return errors.New("read-only") }))
	resp = m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestServeReady_StatusCodes(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(CheckFunc("store", func(context.Context) error { return errors.New("closed") }))

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusHealthy, body.Status)
	assert.Empty(t, body.Checks, "liveness skips checks unless verbose")
}
