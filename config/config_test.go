package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"memepump/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestLoadDefaults
func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.WS.URL)
	assert.Equal(t, 3*time.Second, cfg.WS.ReconnectDelay)
	assert.Equal(t, 100000.0, cfg.Curve.TargetMarketCap)
	assert.Equal(t, 101, cfg.Curve.Points)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
ws:
  url: ws://example.test/ws
  reconnect_delay: 500ms
curve:
  type: linear
  slope: 0.25
archive:
  enabled: true
  postgres:
    dbname: trades
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("MEMEPUMP_API_BASE_URL", "http://api.test/v1")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://example.test/ws", cfg.WS.URL)
	assert.Equal(t, 500*time.Millisecond, cfg.WS.ReconnectDelay)
	assert.Equal(t, "linear", cfg.Curve.Type)
	assert.Equal(t, 0.25, cfg.Curve.Slope)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "trades", cfg.Archive.Postgres.DBName)
	assert.Equal(t, 5432, cfg.Archive.Postgres.Port)
	assert.Equal(t, "http://api.test/v1", cfg.API.BaseURL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		DBName:   "memepump",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=pw dbname=memepump sslmode=disable TimeZone=UTC",
		cfg.DSN("dev"))
	assert.Contains(t, cfg.ServerDSN("dev"), "dbname=postgres")
}
