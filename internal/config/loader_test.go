package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)
	require.Equal(t, 100, cfg.Cache.HighWater)
	require.Equal(t, 5*time.Minute, cfg.Cache.Namespaces["search"])

	brave, ok := cfg.Throttle["brave"]
	require.True(t, ok)
	require.Equal(t, 15, brave.MaxCallsPerWindow)
	require.Equal(t, time.Minute, brave.WindowDuration)
	require.Equal(t, 1100*time.Millisecond, brave.MinDelay)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9191
cache:
  default_ttl: 90s
throttle:
  brave:
    max_calls_per_window: 2
    window_duration: 10s
research:
  brave:
    api_key: test-key
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	require.Equal(t, 2, cfg.Throttle["brave"].MaxCallsPerWindow)
	require.Equal(t, 10*time.Second, cfg.Throttle["brave"].WindowDuration)
	require.Equal(t, "test-key", cfg.Research.Brave.APIKey)
}

func TestLoadRejectsInvalidThrottle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
throttle:
  brave:
    window_duration: 1s
    min_delay: 5s
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "min_delay exceeds window_duration")
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
