package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(FileEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "localhost:8084", cfg.Address())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("DASHBOARD_SERVER_PORT", "9090")
	t.Setenv("DASHBOARD_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("DASHBOARD_DATA_SOURCE_FILE", "weekly.xlsx")
	t.Setenv("DASHBOARD_ENGINE_TOP_N", "12")
	t.Setenv("DASHBOARD_SECURITY_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DASHBOARD_TELEMETRY_EXPORTER", "stdout")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "weekly.xlsx", cfg.Data.SourceFile)
	assert.Equal(t, 12, cfg.Engine.TopN)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	doc := `
server:
  port: 7000
  host: 0.0.0.0
logger:
  level: debug
engine:
  cache_size: 16
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv(FileEnv, path)
	t.Setenv("DASHBOARD_SERVER_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port, "env wins over file")
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 16, cfg.Engine.CacheSize)
	assert.Equal(t, 8, cfg.Engine.TopN, "untouched keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"unknown data format", func(c *Config) { c.Data.Format = "parquet" }},
		{"zero workers", func(c *Config) { c.Data.Workers = 0 }},
		{"top n too large", func(c *Config) { c.Engine.TopN = 1000 }},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }},
		{"zero rps", func(c *Config) { c.Security.RateLimitRPS = 0 }},
		{"bad proxy", func(c *Config) { c.Security.TrustedProxies = []string{"not-an-ip"} }},
		{"bad exporter", func(c *Config) { c.Telemetry.Exporter = "jaeger" }},
		{"sample ratio above one", func(c *Config) { c.Telemetry.SampleRatio = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Data.Format = "xlsx"
	cfg.Security.TrustedProxies = []string{"10.0.0.0/8", "::1"}
	assert.NoError(t, cfg.Validate())
}
