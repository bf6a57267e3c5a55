package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shift/web-spec/internal/webhook"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "cdp", cfg.Backend.Type)
	assert.Equal(t, "http://127.0.0.1:9222", cfg.Backend.URL)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, 10.0, cfg.Compare.TolerancePercent)
	assert.Equal(t, "text", cfg.DefaultFormat)
	assert.Equal(t, int64(30_000), cfg.Alerts.SlowScenarioMS)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Backend.Type = "selenium"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Batch.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.DefaultFormat = "csv"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Backend.Timeout = "not-a-duration"
	assert.Error(t, cfg.Validate())
}

func TestTimeoutParsing(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.Timeout = "90s"
	cfg.Batch.UnitTimeout = "2m"

	d, err := cfg.RunTimeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = cfg.UnitTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	cfg.Backend.Timeout = ""
	d, err = cfg.RunTimeout()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestMergeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`log_level: debug
backend:
  url: ws://localhost:9333/devtools/browser/abc
batch:
  workers: 4
  continue_on_failure: true
webhook:
  url: https://hooks.example.com/webspec
  headers:
    Authorization: Bearer token
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg := Defaults()
	require.NoError(t, mergeFile(cfg, path))
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ws://localhost:9333/devtools/browser/abc", cfg.Backend.URL)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.True(t, cfg.Batch.ContinueOnFailure)
	// Untouched fields keep their defaults.
	assert.Equal(t, "cdp", cfg.Backend.Type)

	n := cfg.Notifier()
	require.NotNil(t, n)
	assert.Equal(t, "https://hooks.example.com/webspec", n.URL)
	assert.Equal(t, "Bearer token", n.Headers["Authorization"])
}

func TestMergeFileNotExist(t *testing.T) {
	cfg := Defaults()
	err := mergeFile(cfg, "/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestNotifierNilWithoutURL(t *testing.T) {
	assert.Nil(t, Defaults().Notifier())
}

func TestNotifierEvents(t *testing.T) {
	cfg := Defaults()
	cfg.Webhook.URL = "https://hooks.example.com"
	cfg.Webhook.Events = []string{"success", "failure"}

	n := cfg.Notifier()
	require.NotNil(t, n)
	assert.Equal(t, []webhook.Event{webhook.EventSuccess, webhook.EventFailure}, n.Events)
}
