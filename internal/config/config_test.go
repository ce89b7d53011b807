package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/geopost/pkg/geocode"
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

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "geopost.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "https://api.twitter.com/1.1", cfg.Twitter.BaseURL)
	assert.Equal(t, 100, cfg.Twitter.PageSize)
	assert.InDelta(t, 1.0, cfg.Twitter.RequestsPerSecond, 0.001)
	assert.Equal(t, "en", cfg.Twitter.Lang)
	assert.Equal(t, 30*time.Second, cfg.Twitter.Timeout())
	assert.Equal(t, "arcgis", cfg.Geocode.Backend)
	assert.Equal(t, geocode.DefaultUserAgent, cfg.Geocode.UserAgent)
	assert.Equal(t, time.Duration(0), cfg.Geocode.Delay())
	assert.Equal(t, 15*time.Second, cfg.Geocode.Timeout())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/geopost
log:
  level: debug
  format: json
geocode:
  backend: nominatim
  delay_ms: 2000
twitter:
  credentials_file: creds.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "nominatim", cfg.Geocode.Backend)
	assert.Equal(t, 2*time.Second, cfg.Geocode.Delay())
	assert.Equal(t, "creds.yaml", cfg.Twitter.CredentialsFile)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Twitter.PageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEOPOST_STORE_DRIVER", "postgres")
	t.Setenv("GEOPOST_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("GEOPOST_GEOCODE_MAPQUEST_KEY", "mq-key")
	t.Setenv("GEOPOST_TWITTER_PAGE_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mq-key", cfg.Geocode.MapQuestKey)
	assert.Equal(t, 50, cfg.Twitter.PageSize)
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
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "geopost.db"
	cfg.Twitter.PageSize = 100
	cfg.Twitter.RequestsPerSecond = 1
	cfg.Geocode.Backend = "arcgis"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_MapQuestNeedsKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Geocode.Backend = "MapQuest"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode.mapquest_key is required")

	cfg.Geocode.MapQuestKey = "k"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Twitter.PageSize = 0
	cfg.Twitter.RequestsPerSecond = 0
	cfg.Geocode.Backend = "google"
	cfg.Geocode.DelayMs = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "twitter.page_size must be between 1 and 100")
	assert.Contains(t, err.Error(), "twitter.requests_per_second must be > 0")
	assert.Contains(t, err.Error(), "geocode.backend must be one of")
	assert.Contains(t, err.Error(), "geocode.delay_ms must be >= 0")
}

func TestGeocodeConfig_BaseURL(t *testing.T) {
	cfg := GeocodeConfig{ArcGISURL: "a", MapQuestURL: "m", NominatimURL: "n"}
	assert.Equal(t, "a", cfg.BaseURL(geocode.BackendArcGIS))
	assert.Equal(t, "m", cfg.BaseURL(geocode.BackendMapQuest))
	assert.Equal(t, "n", cfg.BaseURL(geocode.BackendNominatim))
	assert.Equal(t, "", cfg.BaseURL(geocode.Backend(99)))
}
