package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/apperr"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0600))
	return p
}

func TestExpandEnvWithDefaults(t *testing.T) {
	t.Setenv("NK_SET", "value")
	t.Setenv("NK_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"${NK_SET}", "value"},
		{"${NK_SET:-fallback}", "value"},
		{"${NK_EMPTY:-fallback}", "fallback"},
		{"${NK_UNSET_VAR:-fallback}", "fallback"},
		{"${NK_UNSET_VAR}", ""},
		{"http://${NK_SET}:${NK_PORT_UNSET:-8080}/api", "http://value:8080/api"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvWithDefaults(tt.in), tt.in)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("NK_TEST_MODE", "http")
	p := writeFile(t, "config.yml", `
logger:
  level: debug
  console: ${NK_CONSOLE_UNSET:-true}
client:
  remote_mode: ${NK_TEST_MODE:-mock}
  base_url: http://localhost:8080
  timeout: 5s
  autosave_delay: 300ms
  bulk_concurrency: ${NK_BULK_UNSET:-8}
  orphan_policy: hide
server:
  db: memory
  jwt_expiry: 1h
backup:
  enabled: true
  schedule: "*/5 * * * *"
  webdav:
    url: https://dav.example.com/remote.php
    user: ann
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.Console)
	assert.Equal(t, "http", cfg.Client.RemoteMode)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 300*time.Millisecond, cfg.Client.AutosaveDelay)
	assert.Equal(t, 8, cfg.Client.BulkConcurrency)
	assert.Equal(t, "hide", cfg.Client.OrphanPolicy)
	assert.Equal(t, 20, cfg.Client.DailyTaskLimit)
	assert.Equal(t, "memory", cfg.Server.DB)
	assert.Equal(t, time.Hour, cfg.Server.JWTExpiry)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, "*/5 * * * *", cfg.Backup.Schedule)
	assert.Equal(t, "ann", cfg.Backup.WebDAV.User)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Client.RemoteMode)
	assert.Equal(t, 800*time.Millisecond, cfg.Client.AutosaveDelay)
	assert.Equal(t, 4, cfg.Client.BulkConcurrency)
	assert.Equal(t, 10.0, cfg.Client.RateLimit)
	assert.Equal(t, 5, cfg.Client.RateBurst)
	assert.Equal(t, "sqlite", cfg.Server.DB)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown mode", Config{Client: &ClientConfig{RemoteMode: "grpc"}}},
		{"http without url", Config{Client: &ClientConfig{RemoteMode: "http"}}},
		{"bad orphan policy", Config{Client: &ClientConfig{OrphanPolicy: "drop"}}},
		{"bad timezone", Config{Client: &ClientConfig{Timezone: "Mars/Olympus"}}},
		{"bad db", Config{Server: &ServerConfig{DB: "postgres"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), apperr.ErrValidation)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	p := writeFile(t, ".env", "NK_FROM_DOTENV=loaded\n")
	t.Setenv("NK_FROM_DOTENV", "")
	os.Unsetenv("NK_FROM_DOTENV")

	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), p))
	assert.Equal(t, "loaded", os.Getenv("NK_FROM_DOTENV"))
}
