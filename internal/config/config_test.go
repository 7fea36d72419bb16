package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/area-check/internal/catalog"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "coords.json", cfg.Catalog.Source)
	assert.Empty(t, cfg.Catalog.Format)
	assert.False(t, cfg.Catalog.Strict)
	assert.Empty(t, cfg.Catalog.IDField)
	assert.Equal(t, "nominatim", cfg.Geocoder.Provider)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoder.BaseURL)
	assert.Equal(t, "area-check/1.0", cfg.Geocoder.UserAgent)
	assert.InDelta(t, 1.0, cfg.Geocoder.RateLimit, 0.001)
	assert.Equal(t, 10*time.Second, cfg.Geocoder.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins:
    - https://maps.example.com
catalog:
  source: https://example.com/zonas.geojson
  strict: true
geocoder:
  provider: census
  timeout: 3s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://maps.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "https://example.com/zonas.geojson", cfg.Catalog.Source)
	assert.True(t, cfg.Catalog.Strict)
	assert.Equal(t, catalog.PolicyStrict, cfg.Catalog.Policy())
	assert.Equal(t, "census", cfg.Geocoder.Provider)
	assert.Equal(t, 3*time.Second, cfg.Geocoder.Timeout)
	// Defaults still apply for unset values
	assert.Equal(t, "area-check/1.0", cfg.Geocoder.UserAgent)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
catalog:
  source: zonas.yaml
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("AREACHECK_CATALOG_SOURCE", "areas.json")
	t.Setenv("AREACHECK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "areas.json", cfg.Catalog.Source)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("AREACHECK_SERVER_PORT", "3000")
	t.Setenv("AREACHECK_GEOCODER_USER_AGENT", "zonas-bot/2.0 (ops@example.com)")
	t.Setenv("AREACHECK_GEOCODER_TIMEOUT", "250ms")
	t.Setenv("AREACHECK_SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "zonas-bot/2.0 (ops@example.com)", cfg.Geocoder.UserAgent)
	assert.Equal(t, 250*time.Millisecond, cfg.Geocoder.Timeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func validDefaults() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080},
		Log:     LogConfig{Level: "info", Format: "json"},
		Catalog: CatalogConfig{Source: "coords.json"},
		Geocoder: GeocoderConfig{
			Provider:  "nominatim",
			RateLimit: 1,
			Timeout:   10 * time.Second,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing source", mutate: func(c *Config) { c.Catalog.Source = "" }, wantErr: "catalog.source is required"},
		{name: "bad format", mutate: func(c *Config) { c.Catalog.Format = "kml" }, wantErr: "catalog.format"},
		{name: "known format", mutate: func(c *Config) { c.Catalog.Format = "geojson" }},
		{name: "unknown provider", mutate: func(c *Config) { c.Geocoder.Provider = "mapbox" }, wantErr: "geocoder.provider"},
		{name: "provider case", mutate: func(c *Config) { c.Geocoder.Provider = "Census" }},
		{name: "google without key", mutate: func(c *Config) { c.Geocoder.Provider = "google" }, wantErr: "google_key"},
		{name: "google with key", mutate: func(c *Config) { c.Geocoder.Provider = "google"; c.Geocoder.GoogleKey = "k" }},
		{name: "negative rate", mutate: func(c *Config) { c.Geocoder.RateLimit = -1 }, wantErr: "rate_limit"},
		{name: "negative timeout", mutate: func(c *Config) { c.Geocoder.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Catalog.Source = ""
	cfg.Geocoder.Provider = "mapbox"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.source")
	assert.Contains(t, err.Error(), "geocoder.provider")
}

func TestCatalogPolicy(t *testing.T) {
	assert.Equal(t, catalog.PolicySkip, CatalogConfig{}.Policy())
	assert.Equal(t, catalog.PolicyStrict, CatalogConfig{Strict: true}.Policy())
}
