package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_DefaultValues tests that hardcoded defaults are applied correctly.
func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "quote-keeper", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Version)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultClientRetryMaxAttempts, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, DefaultClientCircuitMaxFailures, cfg.Client.CircuitBreaker.MaxFailures)

	require.NoError(t, cfg.Validate(), "defaults must be valid on their own")
}

func TestLoad_StoreAndSyncDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "./data/quotes", cfg.Store.Path)
	assert.False(t, cfg.Store.InMemory)
	assert.Equal(t, DefaultStoreKey, cfg.Store.Key)

	assert.True(t, cfg.Sync.Enabled)
	assert.True(t, cfg.Sync.OnStart)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, IdentityText, cfg.Sync.Identity)
	assert.Equal(t, DefaultSyncMaxParallel, cfg.Sync.MaxParallel)
}

func TestLoad_QuoteSourceDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	require.Len(t, cfg.Services.Quotes, 1)

	src := cfg.Services.Quotes[0]
	assert.Equal(t, "jsonplaceholder", src.Name)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", src.BaseURL)
	assert.Equal(t, "/posts", src.FetchPath)
	assert.Equal(t, "/posts", src.PublishPath)
	assert.Equal(t, DefaultSourceCategory, src.DefaultCategory)
	assert.Equal(t, DefaultSourceMaxItems, src.MaxItems)
}

// TestLoad_EnvVarOverrides tests that environment variables override defaults.
func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("APP_SYNC_MAX__PARALLEL", "7")
	t.Setenv("APP_STORE_IN__MEMORY", "true")

	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Sync.MaxParallel)
	assert.True(t, cfg.Store.InMemory)
}

func TestLoad_ProfileFileOverridesBase(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "base.yaml"), `
log:
  level: debug
sync:
  interval: 30s
`)
	writeFile(t, filepath.Join(dir, "qa.yaml"), `
sync:
  interval: 5m
  identity: id
services:
  quotes:
    - name: primary
      base_url: http://quotes.internal
      fetch_path: /v1/quotes
      default_category: Remote
    - name: backup
      base_url: http://backup.internal
      fetch_path: /quotes
      default_category: Backup
      max_items: 0
`)

	cfg, err := LoadFrom(dir, "qa")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "base value survives")
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval, "profile wins over base")
	assert.Equal(t, IdentityID, cfg.Sync.Identity)

	require.Len(t, cfg.Services.Quotes, 2)
	assert.Equal(t, "primary", cfg.Services.Quotes[0].Name)
	assert.Empty(t, cfg.Services.Quotes[0].PublishPath)
	assert.Equal(t, "Backup", cfg.Services.Quotes[1].DefaultCategory)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), "log: [unterminated")

	_, err := LoadFrom(dir, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}

// TestLoad_NonExistentProfile tests that a missing profile file doesn't cause errors.
func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "quote-keeper", cfg.App.Name)
}

// TestLoad_DurationParsing tests that duration strings are parsed correctly.
func TestLoad_DurationParsing(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.Client.Retry.MaxInterval)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Client.Transport.IdleConnTimeout)
}

// TestLoad_LogFileDefaults tests that log file defaults are set correctly.
func TestLoad_LogFileDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.False(t, cfg.Log.File.Enabled)
	assert.Equal(t, "./logs/quote-keeper.log", cfg.Log.File.Path)
	assert.Equal(t, DefaultLogFileMaxSizeMB, cfg.Log.File.MaxSizeMB)
	assert.Equal(t, DefaultLogFileMaxBackups, cfg.Log.File.MaxBackups)
	assert.Equal(t, DefaultLogFileMaxAgeDays, cfg.Log.File.MaxAgeDays)
	assert.True(t, cfg.Log.File.Compress)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
