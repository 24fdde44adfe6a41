// Package config loads the movie search client configuration from a YAML
// file and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/Sternrassler/movie-search-client/pkg/logging"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration.
// Source priority:
//  1. explicit path passed to Load/MustLoad;
//  2. the CONFIG_PATH environment variable;
//  3. environment variables only.
//
// Environment variables override values read from a file.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Client  ClientConfig  `yaml:"client"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SearchConfig identifies the search service.
type SearchConfig struct {
	BaseURL  string `yaml:"base_url"  env:"SEARCH_BASE_URL"  env-required:"true"`
	PageSize int    `yaml:"page_size" env:"SEARCH_PAGE_SIZE" env-default:"12"`
}

// ClientConfig holds HTTP client settings.
type ClientConfig struct {
	UserAgent  string        `yaml:"user_agent"  env:"SEARCH_USER_AGENT"  env-default:"movie-search-client/0.1.0"`
	Timeout    time.Duration `yaml:"timeout"     env:"SEARCH_TIMEOUT"     env-default:"10s"`
	MaxRetries int           `yaml:"max_retries" env:"SEARCH_MAX_RETRIES" env-default:"0"`
	// Requests per second; 0 disables pacing.
	RateLimit float64 `yaml:"rate_limit" env:"SEARCH_RATE_LIMIT" env-default:"0"`
	RateBurst int     `yaml:"rate_burst" env:"SEARCH_RATE_BURST" env-default:"1"`
	// Parallel page requests when collecting all pages.
	MaxConcurrency int `yaml:"max_concurrency" env:"SEARCH_MAX_CONCURRENCY" env-default:"4"`
}

// CacheConfig holds result cache settings.
// Without a Redis address an in-process cache is used.
type CacheConfig struct {
	Disabled      bool          `yaml:"disabled"       env:"CACHE_DISABLED"`
	TTL           time.Duration `yaml:"ttl"            env:"CACHE_TTL"            env-default:"5m"`
	MemoryEntries int           `yaml:"memory_entries" env:"CACHE_MEMORY_ENTRIES" env-default:"256"`
	RedisAddr     string        `yaml:"redis_addr"     env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"       env:"REDIS_DB"             env-default:"0"`
	Prefix        string        `yaml:"prefix"         env:"CACHE_PREFIX"         env-default:"movies"`
}

// Enabled reports whether results are cached.
func (c CacheConfig) Enabled() bool {
	return !c.Disabled
}

// UseRedis reports whether the Redis store is configured.
func (c CacheConfig) UseRedis() bool {
	return c.Enabled() && c.RedisAddr != ""
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY" env-default:"false"`
}

// Logging converts the settings for logging.Setup.
func (c LogConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Level); err == nil {
		cfg.Level = level
	}
	cfg.Pretty = c.Pretty
	return cfg
}

// MetricsConfig holds the optional /metrics listener.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration by priority:
// 1) explicit path; 2) CONFIG_PATH; 3) environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide -config, CONFIG_PATH or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks value ranges.
func (c *Config) validate() error {
	if c.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	u, err := url.Parse(c.Search.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("search.base_url must be an absolute http(s) url, got %q", c.Search.BaseURL)
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be > 0")
	}
	if c.Client.UserAgent == "" {
		return fmt.Errorf("client.user_agent is required")
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be > 0")
	}
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("client.max_retries must be >= 0")
	}
	if c.Client.RateLimit < 0 {
		return fmt.Errorf("client.rate_limit must be >= 0")
	}
	if c.Client.RateBurst <= 0 {
		return fmt.Errorf("client.rate_burst must be > 0")
	}
	if c.Client.MaxConcurrency <= 0 {
		return fmt.Errorf("client.max_concurrency must be > 0")
	}
	if c.Cache.Enabled() && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	if c.Cache.MemoryEntries <= 0 {
		return fmt.Errorf("cache.memory_entries must be > 0")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
