package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/geopost/pkg/geocode"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Twitter TwitterConfig `yaml:"twitter" mapstructure:"twitter"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the run history database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// TwitterConfig configures the search source.
type TwitterConfig struct {
	CredentialsFile   string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	PageSize          int     `yaml:"page_size" mapstructure:"page_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Lang              string  `yaml:"lang" mapstructure:"lang"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-request timeout.
func (c TwitterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// GeocodeConfig configures the geocoding backends.
type GeocodeConfig struct {
	Backend      string `yaml:"backend" mapstructure:"backend"`
	ArcGISURL    string `yaml:"arcgis_url" mapstructure:"arcgis_url"`
	MapQuestURL  string `yaml:"mapquest_url" mapstructure:"mapquest_url"`
	MapQuestKey  string `yaml:"mapquest_key" mapstructure:"mapquest_key"`
	NominatimURL string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	DelayMs      int    `yaml:"delay_ms" mapstructure:"delay_ms"` // 0 keeps the backend default
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Delay returns the configured post-call delay override.
func (c GeocodeConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (c GeocodeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// BaseURL returns the endpoint override for backend, or "".
func (c GeocodeConfig) BaseURL(backend geocode.Backend) string {
	switch backend {
	case geocode.BackendArcGIS:
		return c.ArcGISURL
	case geocode.BackendMapQuest:
		return c.MapQuestURL
	case geocode.BackendNominatim:
		return c.NominatimURL
	default:
		return ""
	}
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "geopost.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("twitter.credentials_file", "")
	v.SetDefault("twitter.base_url", "https://api.twitter.com/1.1")
	v.SetDefault("twitter.page_size", 100)
	v.SetDefault("twitter.requests_per_second", 1.0)
	v.SetDefault("twitter.lang", "en")
	v.SetDefault("twitter.timeout_secs", 30)
	v.SetDefault("geocode.backend", "arcgis")
	v.SetDefault("geocode.arcgis_url", "")
	v.SetDefault("geocode.mapquest_url", "")
	v.SetDefault("geocode.mapquest_key", "")
	v.SetDefault("geocode.nominatim_url", "")
	v.SetDefault("geocode.user_agent", geocode.DefaultUserAgent)
	v.SetDefault("geocode.delay_ms", 0)
	v.SetDefault("geocode.timeout_secs", 15)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Store.Driver) {
	case "sqlite", "postgres", "postgresql":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	if c.Twitter.PageSize < 1 || c.Twitter.PageSize > 100 {
		errs = append(errs, "twitter.page_size must be between 1 and 100")
	}
	if c.Twitter.RequestsPerSecond <= 0 {
		errs = append(errs, "twitter.requests_per_second must be > 0")
	}

	backend, err := geocode.ParseBackend(c.Geocode.Backend)
	if err != nil {
		errs = append(errs, "geocode.backend must be one of arcgis, mapquest, nominatim")
	} else if backend == geocode.BackendMapQuest && c.Geocode.MapQuestKey == "" {
		errs = append(errs, "geocode.mapquest_key is required for the mapquest backend")
	}
	if c.Geocode.DelayMs < 0 {
		errs = append(errs, "geocode.delay_ms must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
