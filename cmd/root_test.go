package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogOnlyConfig = `
logging:
  level: error
gateway:
  backends:
    - prefix: drive
      kind: catalog
      enabled: true
    - prefix: notebook
      kind: notebook
      enabled: false
`

// isolate runs the test from an empty directory with no gateway variables
// set, so neither the host environment nor a checked-in config is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	for _, name := range []string{
		"PORT", "HOST", "ENVIRONMENT", "LOG_LEVEL", "ASANA_TOKEN", "SNOWFLAKE_PASSWORD",
		"GATEWAY_CONFIG_PATH", "GATEWAY_LOGGING_LEVEL",
	} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "SM MCP Gateway V2 2.0.0")
}

func TestConfigInitWritesOnce(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	assert.FileExists(t, filepath.Join(dir, "config", "gateway.yaml"))

	out, err = run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestConfigPrintMasksSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("SNOWFLAKE_PASSWORD", "hunter2")
	t.Setenv("ASANA_TOKEN", "tok")

	out, err := run(t, "config", "print", "--format", "json")
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, `"tok"`)

	var printed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	snowflake := printed["snowflake"].(map[string]any)
	assert.Equal(t, redacted, snowflake["password"])
}

func TestConfigPrintRejectsUnknownFormat(t *testing.T) {
	isolate(t)
	_, err := run(t, "config", "print", "--format", "ini")
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, catalogOnlyConfig)

	out, err := run(t, "--config", path, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 backends enabled")

	_, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "validate")
	require.Error(t, err)
}

func TestValidateCommandRejectsBadPrefix(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
gateway:
  backends:
    - prefix: bad_prefix
      kind: catalog
      enabled: true
`)
	_, err := run(t, "--config", path, "validate")
	require.Error(t, err)
}

func TestToolsCommand(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, catalogOnlyConfig)

	out, err := run(t, "--config", path, "tools")
	require.NoError(t, err)

	var listing struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
		TotalTools int `json:"total_tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.NotEmpty(t, listing.Tools)
	assert.Equal(t, "gateway_status", listing.Tools[0].Name)
	assert.Equal(t, len(listing.Tools), listing.TotalTools)
	for _, tool := range listing.Tools[1:] {
		assert.True(t, strings.HasPrefix(tool.Name, "drive_"), tool.Name)
	}
}

func TestStatusCommand(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, catalogOnlyConfig)

	out, err := run(t, "--config", path, "status")
	require.NoError(t, err)

	var report struct {
		Backends map[string]struct {
			Status string `json:"status"`
		} `json:"backends"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Backends, 1)
	assert.Equal(t, "HEALTHY", report.Backends["drive"].Status)
}
