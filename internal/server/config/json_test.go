package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                 "www.example:9000",
		"database_dsn":              "postgres://x",
		"moodle_url":                "http://m/ws",
		"moodle_token":              "tok",
		"moodle_timeout":            "10s",
		"secret_key":                "my_secret_key",
		"session_validity_duration": "24h",
		"cookie_secure":             true,
		"allowed_origins":           []string{"https://app"},
		"rate_limit_rps":            2.5,
		"rate_limit_burst":          4,
		"log_backend":               "zap",
		"s3_bucket":                 "bucket",
	})

	t.Run("loads from json", func(t *testing.T) {
		t.Setenv("CONFIG", "")
		setArgs(t, "-config", path)

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "http://m/ws", cfg.MoodleURL)
		assert.Equal(t, "tok", cfg.MoodleToken)
		assert.Equal(t, 10*time.Second, cfg.MoodleTimeout)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 24*time.Hour, cfg.SessionValidityDuration)
		assert.True(t, cfg.CookieSecure)
		assert.Equal(t, []string{"https://app"}, cfg.AllowedOrigins)
		assert.Equal(t, 2.5, cfg.RateLimitRPS)
		assert.Equal(t, 4, cfg.RateLimitBurst)
		assert.Equal(t, "zap", cfg.LogBackend)
		assert.Equal(t, "bucket", cfg.S3Bucket)
	})

	t.Run("CONFIG env used without flag", func(t *testing.T) {
		t.Setenv("CONFIG", path)
		setArgs(t)

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, "tok", cfg.MoodleToken)
	})

	t.Run("missing keys keep current values", func(t *testing.T) {
		t.Setenv("CONFIG", "")
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"moodle_token": "x"})
		setArgs(t, "-c", partial)

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "x", cfg.MoodleToken)
		assert.Equal(t, ":8000", cfg.HTTPAddr)
		assert.Equal(t, 14*24*time.Hour, cfg.SessionValidityDuration)
	})

	t.Run("no file → no changes", func(t *testing.T) {
		t.Setenv("CONFIG", "")
		setArgs(t)

		cfg := &Config{HTTPAddr: "defaults:1234"}
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		t.Setenv("CONFIG", "")
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		setArgs(t, "-config", bad)

		assert.Error(t, parseJson(&Config{}))
	})

	t.Run("missing file → error", func(t *testing.T) {
		t.Setenv("CONFIG", "")
		setArgs(t, "-c", filepath.Join(dir, "nope.json"))

		assert.Error(t, parseJson(&Config{}))
	})
}
