package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusReport(t *testing.T) {
	registry := RegisterAll(context.Background(), []Spec{
		staticSpec("a", &fakeBackend{tools: toolsNamed("one", "two")}),
		failingSpec("b", "no token"),
		staticSpec("c", &fakeBackend{listErr: errors.New("listing failed")}),
		staticSpec("d", &fakeBackend{tools: toolsNamed("three")}),
	})
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	gw := New(registry, Options{
		Info: Info{Name: "SM MCP Gateway V2", Version: "2.0.0", Environment: "test"},
		Now:  func() time.Time { return fixed },
	})

	report := gw.Status()
	assert.Equal(t, "SM MCP Gateway V2", report.Gateway.Name)
	assert.Equal(t, "2026-01-02T03:04:05Z", report.Gateway.Timestamp)
	assert.Equal(t, map[string]BackendStatus{
		"a": {Status: StatusHealthy, Tools: 2},
		"b": {Status: StatusFailed},
		"c": {Status: StatusError, Error: "listing failed"},
		"d": {Status: StatusHealthy, Tools: 1},
	}, report.Backends)
	assert.Equal(t, 3, report.TotalTools)
}

func TestStatusReportJSON(t *testing.T) {
	registry := RegisterAll(context.Background(), []Spec{failingSpec("b", "no token")})
	raw, err := json.Marshal(New(registry, Options{}).Status())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "gateway")
	assert.EqualValues(t, 0, decoded["total_tools"])
	backend := decoded["backends"].(map[string]any)["b"].(map[string]any)
	assert.Equal(t, "FAILED", backend["status"])
	assert.EqualValues(t, 0, backend["tools"])
	assert.NotContains(t, backend, "error")
}
