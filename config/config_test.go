package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
  rate_limit_per_sec: 20
  rate_limit_burst: 10
  cache_ttl_seconds: 15
database:
  dsn: "host=localhost user=app dbname=hospital"
  max_open_conns: 10
reservation:
  ttl_minutes: 30
  sweep_interval_seconds: 120
scoring:
  affordability_threshold: 75000
  assumed_speed_kmph: 40
triage:
  url: "http://classifier:9000/classify"
  timeout_seconds: 5
push:
  vapid_public_key: pub
  vapid_private_key: priv
  subject: "mailto:ops@example.com"
worker_pool:
  size: 4
log_format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 30*time.Minute, cfg.Reservation.TTL)
	assert.Equal(t, 2*time.Minute, cfg.Reservation.SweepInterval)
	assert.Equal(t, 75000.0, cfg.Scoring.AffordabilityThreshold)
	assert.Equal(t, 40.0, cfg.Scoring.AssumedSpeedKmph)
	assert.Equal(t, 5*time.Second, cfg.Triage.Timeout)
	assert.Equal(t, "pub", cfg.Push.PublicKey)
	assert.Equal(t, 4, cfg.WorkerPool.Size)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Reservation.TTL)
	assert.Equal(t, time.Minute, cfg.Reservation.SweepInterval)
	assert.Equal(t, 30.0, cfg.Scoring.AssumedSpeedKmph)
	assert.Equal(t, 50000.0, cfg.Scoring.AffordabilityThreshold)
	assert.Equal(t, 10*time.Second, cfg.Triage.Timeout)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, 30, cfg.Server.CacheTTLSeconds)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}
