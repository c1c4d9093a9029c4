package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)
	t.Setenv("GOOGLE_PLACES_API_KEY", "")
	t.Setenv("PSI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://places.googleapis.com/v1", cfg.Google.BaseURL)
	assert.InDelta(t, 10.0, cfg.Google.RateLimit, 0.001)
	assert.Equal(t, "https://www.googleapis.com/pagespeedonline/v5", cfg.PageSpeed.BaseURL)
	assert.Equal(t, 1, cfg.PageSpeed.MaxAttempts)
	assert.True(t, cfg.SiteCheck.Enabled)
	assert.False(t, cfg.SiteCheck.AllowPrivate)
	assert.Equal(t, 3, cfg.Pipeline.MaxIndustries)
	assert.Equal(t, 3, cfg.Pipeline.MaxPerIndustry)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, 10, cfg.Pipeline.PlacesTimeoutSecs)
	assert.Equal(t, 60, cfg.Pipeline.QualityTimeoutSecs)
	assert.Equal(t, 2, cfg.Pipeline.Retry.MaxAttempts)
	assert.Equal(t, []string{"dentists", "plumbers", "HVAC", "lawyers", "landscaping"}, cfg.Industries.Auto)
	assert.Equal(t, []string{"dentists", "plumbers", "HVAC"}, cfg.Industries.Hybrid)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "leads.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"sequel123", "admin"}, cfg.Server.Passwords)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Google.Key)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/leads
log:
  level: debug
  format: console
pipeline:
  max_per_industry: 5
industries:
  auto: [roofers, electricians]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/leads", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Pipeline.MaxPerIndustry)
	assert.Equal(t, []string{"roofers", "electricians"}, cfg.Industries.Auto)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Pipeline.MaxIndustries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("LEADS_LOG_LEVEL", "warn")
	t.Setenv("LEADS_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadLegacyKeyNames(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOOGLE_PLACES_API_KEY", "places-key")
	t.Setenv("PSI_API_KEY", "psi-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "places-key", cfg.Google.Key)
	assert.Equal(t, "psi-key", cfg.PageSpeed.Key)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEADS_GOOGLE_KEY=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LEADS_GOOGLE_KEY") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Google.Key)
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
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Pipeline.MaxIndustries = 3
	cfg.Pipeline.MaxPerIndustry = 3
	cfg.Pipeline.Concurrency = 4
	cfg.Pipeline.PlacesTimeoutSecs = 10
	cfg.Pipeline.QualityTimeoutSecs = 60
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "leads.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateSearch(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("search"))

	cfg.Pipeline.Concurrency = 0
	cfg.Pipeline.MaxPerIndustry = 50
	err := cfg.Validate("search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.concurrency must be between 1 and 32")
	assert.Contains(t, err.Error(), "pipeline.max_per_industry must be between 1 and 20")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("store"))

	cfg.Store.Driver = "mysql"
	err := cfg.Validate("store")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	err = cfg.Validate("store")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
