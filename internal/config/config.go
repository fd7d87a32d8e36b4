// Path: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"rank-sync/internal/domain"
)

// Config holds all configuration for the application. It is built once by
// Load and handed to components by value.
type Config struct {
	Sync     SyncConfig     `mapstructure:"sync"`
	Output   OutputConfig   `mapstructure:"output"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Log      LogConfig      `mapstructure:"log"`
}

// SyncConfig holds the dimensions and resilience settings of a run.
type SyncConfig struct {
	Regions      []string `mapstructure:"regions" validate:"min=1,dive,required,pathsegment"`
	Categories   []string `mapstructure:"categories" validate:"min=1,dive,required,pathsegment"`
	Feeds        []string `mapstructure:"feeds" validate:"min=1,dive,required,pathsegment"`
	Limit        int      `mapstructure:"limit" validate:"min=1,max=200"`
	MaxRetries   int      `mapstructure:"max_retries" validate:"min=1"`
	RetryDelayMs int      `mapstructure:"retry_delay_ms" validate:"min=0"`
	Concurrency  int      `mapstructure:"concurrency" validate:"min=1"`
	FallbackFile string   `mapstructure:"fallback_file"`
}

// RetryDelay returns the fixed wait between fetch attempts.
func (s SyncConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMs) * time.Millisecond
}

// OutputConfig holds where artifacts are written.
type OutputConfig struct {
	DataDir string `mapstructure:"data_dir" validate:"required"`
}

// ScraperConfig holds settings for the upstream HTTP client.
type ScraperConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	LegacyBaseURL     string  `mapstructure:"legacy_base_url" validate:"required,url"`
	UserAgent         string  `mapstructure:"user_agent"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"min=1"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`
	BurstLimit        int     `mapstructure:"burst_limit" validate:"min=1"`
	BreakerFailures   int     `mapstructure:"breaker_failures" validate:"min=0"`
}

// Timeout returns the per-request HTTP timeout.
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DatabaseConfig holds the optional mirror database settings.
// An empty URI disables the mirror.
type DatabaseConfig struct {
	URI              string `mapstructure:"uri"`
	Name             string `mapstructure:"name"`
	Collection       string `mapstructure:"collection"`
	StatusCollection string `mapstructure:"status_collection"`
}

// ServerConfig holds the read-only API settings. An empty port disables it.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// WatcherConfig holds settings for watch mode. Zero runs once and exits.
type WatcherConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes" validate:"min=0"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
}

// legacyEnv lists environment names understood for compatibility with the
// single-region sync job, keyed by config key.
var legacyEnv = map[string]string{
	"sync.regions":        "APPSTORE_COUNTRY",
	"sync.categories":     "APPSTORE_MEDIA_TYPES",
	"sync.feeds":          "APPSTORE_FEED",
	"sync.limit":          "APPSTORE_LIMIT",
	"sync.max_retries":    "FETCH_RETRIES",
	"sync.retry_delay_ms": "FETCH_RETRY_DELAY_MS",
	"sync.concurrency":    "FETCH_CONCURRENCY",
	"sync.fallback_file":  "APPSTORE_FALLBACK_FILE",
	"output.data_dir":     "DATA_DIR",
}

// Load loads the configuration from defaults, an optional config file and
// environment variables, then validates it.
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("SYNC.REGIONS", []string{"cn"})
	v.SetDefault("SYNC.CATEGORIES", []string{"apps"})
	v.SetDefault("SYNC.FEEDS", []string{"top-free"})
	v.SetDefault("SYNC.LIMIT", 100)
	v.SetDefault("SYNC.MAX_RETRIES", 3)
	v.SetDefault("SYNC.RETRY_DELAY_MS", 1500)
	v.SetDefault("SYNC.CONCURRENCY", 3)
	v.SetDefault("SYNC.FALLBACK_FILE", "")
	v.SetDefault("OUTPUT.DATA_DIR", "data")
	v.SetDefault("SCRAPER.BASE_URL", "https://rss.applemarketingtools.com/api/v2")
	v.SetDefault("SCRAPER.LEGACY_BASE_URL", "https://itunes.apple.com")
	v.SetDefault("SCRAPER.USER_AGENT", "ios-rank-history-bot/1.0")
	v.SetDefault("SCRAPER.TIMEOUT_SECONDS", 30)
	v.SetDefault("SCRAPER.REQUESTS_PER_SECOND", 0)
	v.SetDefault("SCRAPER.BURST_LIMIT", 1)
	v.SetDefault("SCRAPER.BREAKER_FAILURES", 0)
	v.SetDefault("DATABASE.URI", "")
	v.SetDefault("DATABASE.NAME", "rank-sync")
	v.SetDefault("DATABASE.COLLECTION", "datasets")
	v.SetDefault("DATABASE.STATUS_COLLECTION", "_status")
	v.SetDefault("SERVER.PORT", "")
	v.SetDefault("WATCHER.INTERVAL_MINUTES", 0)
	v.SetDefault("LOG.LEVEL", "info")
	v.SetDefault("LOG.FORMAT", "json")

	// Load from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err // Only return error if it's not a "file not found" error
		}
	}

	// Load from environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		primary := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Sync.Regions = splitList(cfg.Sync.Regions)
	cfg.Sync.Categories = splitList(cfg.Sync.Categories)
	cfg.Sync.Feeds = splitList(cfg.Sync.Feeds)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and required settings.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("pathsegment", isPathSegment); err != nil {
		return fmt.Errorf("register validation: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// isPathSegment accepts dimension values that are safe as one artifact
// path element once trimmed and lower-cased.
func isPathSegment(fl validator.FieldLevel) bool {
	return domain.ValidSegment(strings.ToLower(strings.TrimSpace(fl.Field().String())))
}

// splitList trims entries, splits any that still carry commas and drops
// blanks, so "us, gb" and ["us", "gb"] load the same.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
