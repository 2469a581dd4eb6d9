package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	t.Run("URLGetsAuthToken", func(t *testing.T) {
		cfg := Config{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := Config{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		dsn, err := buildDSN(Config{Path: "file:./canvas.db"})
		require.NoError(t, err)
		require.Equal(t, "file:./canvas.db", dsn)
	})

	t.Run("BarePathGetsFilePrefix", func(t *testing.T) {
		dsn, err := buildDSN(Config{Path: "canvas.db"})
		require.NoError(t, err)
		require.Equal(t, "file:canvas.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		_, err := buildDSN(Config{})
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		dsn, err := buildDSN(Config{Path: ":memory:"})
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "postgres", Path: ":memory:"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported store driver")
}

func TestDepthFromKey(t *testing.T) {
	require.Equal(t, "instant", depthFromKey("dr. smith|cardiology|austin, tx|instant"))
	require.Equal(t, "", depthFromKey(""))
}
