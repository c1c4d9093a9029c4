package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	PageSpeed  PageSpeedConfig  `yaml:"pagespeed" mapstructure:"pagespeed"`
	SiteCheck  SiteCheckConfig  `yaml:"sitecheck" mapstructure:"sitecheck"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Industries IndustriesConfig `yaml:"industries" mapstructure:"industries"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// PageSpeedConfig holds PageSpeed Insights settings. An empty key disables
// the provider and the local site check is used instead.
type PageSpeedConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	FailureThreshold int    `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int    `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// SiteCheckConfig configures the local homepage audit.
type SiteCheckConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	MaxBytes  int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// AllowPrivate lets the checker dial loopback, link-local and private
	// addresses. Off by default.
	AllowPrivate bool `yaml:"allow_private" mapstructure:"allow_private"`
}

// PipelineConfig bounds the lead search fan-out.
type PipelineConfig struct {
	MaxIndustries      int         `yaml:"max_industries" mapstructure:"max_industries"`
	MaxPerIndustry     int         `yaml:"max_per_industry" mapstructure:"max_per_industry"`
	Concurrency        int         `yaml:"concurrency" mapstructure:"concurrency"`
	PlacesTimeoutSecs  int         `yaml:"places_timeout_secs" mapstructure:"places_timeout_secs"`
	QualityTimeoutSecs int         `yaml:"quality_timeout_secs" mapstructure:"quality_timeout_secs"`
	Retry              RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig holds backoff settings for Places calls.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// IndustriesConfig holds the curated default industry lists.
type IndustriesConfig struct {
	Auto   []string `yaml:"auto" mapstructure:"auto"`
	Hybrid []string `yaml:"hybrid" mapstructure:"hybrid"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures quality report caching.
type CacheConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	Passwords   []string `yaml:"passwords" mapstructure:"passwords"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The web app and the python CLI both read these names.
	_ = v.BindEnv("google.key", "LEADS_GOOGLE_KEY", "GOOGLE_PLACES_API_KEY")
	_ = v.BindEnv("pagespeed.key", "LEADS_PAGESPEED_KEY", "PSI_API_KEY")

	// Defaults
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("pagespeed.base_url", "https://www.googleapis.com/pagespeedonline/v5")
	v.SetDefault("pagespeed.max_attempts", 1)
	v.SetDefault("pagespeed.failure_threshold", 5)
	v.SetDefault("pagespeed.reset_timeout_secs", 60)
	v.SetDefault("sitecheck.enabled", true)
	v.SetDefault("sitecheck.max_bytes", 2*1024*1024)
	v.SetDefault("sitecheck.user_agent", "seo-lead-finder/1.0")
	v.SetDefault("sitecheck.allow_private", false)
	v.SetDefault("pipeline.max_industries", 3)
	v.SetDefault("pipeline.max_per_industry", 3)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.places_timeout_secs", 10)
	v.SetDefault("pipeline.quality_timeout_secs", 60)
	v.SetDefault("pipeline.retry.max_attempts", 2)
	v.SetDefault("pipeline.retry.initial_backoff_ms", 500)
	v.SetDefault("pipeline.retry.max_backoff_ms", 5000)
	v.SetDefault("pipeline.retry.multiplier", 2.0)
	v.SetDefault("pipeline.retry.jitter_fraction", 0.25)
	v.SetDefault("industries.auto", []string{"dentists", "plumbers", "HVAC", "lawyers", "landscaping"})
	v.SetDefault("industries.hybrid", []string{"dentists", "plumbers", "HVAC"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leads.db")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.passwords", []string{"sequel123", "admin"})
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command depends on. Mode is one of
// "search", "serve" or "store".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "search":
		problems = append(problems, c.validatePipeline()...)
	case "serve":
		problems = append(problems, c.validatePipeline()...)
		problems = append(problems, c.validateStore()...)
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "store":
		problems = append(problems, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validatePipeline() []string {
	var problems []string
	p := c.Pipeline
	if p.MaxIndustries < 1 {
		problems = append(problems, "pipeline.max_industries must be >= 1")
	}
	if p.MaxPerIndustry < 1 || p.MaxPerIndustry > 20 {
		problems = append(problems, "pipeline.max_per_industry must be between 1 and 20")
	}
	if p.Concurrency < 1 || p.Concurrency > 32 {
		problems = append(problems, "pipeline.concurrency must be between 1 and 32")
	}
	if p.PlacesTimeoutSecs <= 0 || p.QualityTimeoutSecs <= 0 {
		problems = append(problems, "pipeline timeouts must be > 0")
	}
	return problems
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return []string{"store.driver must be sqlite or postgres"}
	}
	if c.Store.DatabaseURL == "" {
		return []string{"store.database_url is required"}
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
