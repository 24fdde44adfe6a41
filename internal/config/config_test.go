package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/movie-search-client/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile writes a temporary config file.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

// clearEnv unsets variables that would leak into Load from the test environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_PATH", "SEARCH_BASE_URL", "SEARCH_PAGE_SIZE", "SEARCH_USER_AGENT",
		"SEARCH_TIMEOUT", "SEARCH_MAX_RETRIES", "SEARCH_MAX_CONCURRENCY",
		"SEARCH_RATE_LIMIT", "SEARCH_RATE_BURST",
		"CACHE_DISABLED", "CACHE_TTL", "CACHE_MEMORY_ENTRIES", "REDIS_ADDR",
		"REDIS_PASSWORD", "REDIS_DB", "CACHE_PREFIX", "LOG_LEVEL", "LOG_PRETTY",
		"METRICS_ADDR",
	} {
		if value, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { _ = os.Setenv(key, value) })
		}
	}
}

// Complete YAML, independent of defaults.
const sampleYAML = `
search:
  base_url: "https://cinema.example.com"
  page_size: 20
client:
  user_agent: "cinema-cli/2.0"
  timeout: "3s"
  max_retries: 2
  rate_limit: 2.5
  rate_burst: 3
  max_concurrency: 8
cache:
  ttl: "1m"
  memory_entries: 64
  redis_addr: "localhost:6379"
  redis_db: 3
  prefix: "cinema"
log:
  level: "debug"
  pretty: true
metrics:
  addr: ":9090"
`

// Minimal valid YAML (required fields only).
const minimalYAML = `
search:
  base_url: "http://localhost:8000"
`

const brokenYAML = `
search:
  base_url: "http://localhost:8000
`

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	clearEnv(t)

	cfgPath := writeFile(t, t.TempDir(), "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "https://cinema.example.com", cfg.Search.BaseURL)
	assert.Equal(t, 20, cfg.Search.PageSize)
	assert.Equal(t, "cinema-cli/2.0", cfg.Client.UserAgent)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 2, cfg.Client.MaxRetries)
	assert.InDelta(t, 2.5, cfg.Client.RateLimit, 0.0001)
	assert.Equal(t, 3, cfg.Client.RateBurst)
	assert.Equal(t, 8, cfg.Client.MaxConcurrency)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 64, cfg.Cache.MemoryEntries)
	assert.Equal(t, 3, cfg.Cache.RedisDB)
	assert.Equal(t, "cinema", cfg.Cache.Prefix)
	assert.True(t, cfg.Cache.UseRedis())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfgPath := writeFile(t, t.TempDir(), "config.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Search.PageSize)
	assert.Equal(t, "movie-search-client/0.1.0", cfg.Client.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 0, cfg.Client.MaxRetries)
	assert.Zero(t, cfg.Client.RateLimit)
	assert.Equal(t, 1, cfg.Client.RateBurst)
	assert.Equal(t, 4, cfg.Client.MaxConcurrency)
	assert.True(t, cfg.Cache.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "movies", cfg.Cache.Prefix)
	assert.False(t, cfg.Cache.UseRedis())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_CacheDisabled(t *testing.T) {
	clearEnv(t)

	cfgPath := writeFile(t, t.TempDir(), "config.yaml", minimalYAML+`
cache:
  disabled: true
  redis_addr: "localhost:6379"
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.False(t, cfg.Cache.Enabled())
	assert.False(t, cfg.Cache.UseRedis())
}

func TestLoad_CacheDisabledFromEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("SEARCH_BASE_URL", "http://localhost:8000")
	t.Setenv("CACHE_DISABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Cache.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	cfgPath := writeFile(t, t.TempDir(), "config.yaml", sampleYAML)
	t.Setenv("SEARCH_BASE_URL", "http://override:8000")
	t.Setenv("SEARCH_PAGE_SIZE", "6")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "http://override:8000", cfg.Search.BaseURL)
	assert.Equal(t, 6, cfg.Search.PageSize)
}

func TestLoad_FromConfigPathEnv(t *testing.T) {
	clearEnv(t)

	cfgPath := writeFile(t, t.TempDir(), "config.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Search.BaseURL)
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)

	t.Setenv("SEARCH_BASE_URL", "http://localhost:8000")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Search.BaseURL)
	assert.True(t, cfg.Cache.UseRedis())
}

func TestLoad_EnvOnly_MissingBaseURL(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoad_BrokenYAML(t *testing.T) {
	clearEnv(t)

	cfgPath := writeFile(t, t.TempDir(), "config.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "relative base url",
			yaml: "search:\n  base_url: \"/api\"\n",
			want: "search.base_url must be an absolute http(s) url",
		},
		{
			name: "zero page size",
			yaml: "search:\n  base_url: \"http://localhost:8000\"\n  page_size: -1\n",
			want: "search.page_size must be > 0",
		},
		{
			name: "negative retries",
			yaml: "search:\n  base_url: \"http://localhost:8000\"\nclient:\n  max_retries: -1\n",
			want: "client.max_retries must be >= 0",
		},
		{
			name: "negative rate limit",
			yaml: "search:\n  base_url: \"http://localhost:8000\"\nclient:\n  rate_limit: -1\n",
			want: "client.rate_limit must be >= 0",
		},
		{
			name: "unknown log level",
			yaml: "search:\n  base_url: \"http://localhost:8000\"\nlog:\n  level: \"chatty\"\n",
			want: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			cfgPath := writeFile(t, t.TempDir(), "config.yaml", tt.yaml)

			_, err := Load(cfgPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMustLoad_Panics(t *testing.T) {
	clearEnv(t)

	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}

func TestLogConfig_Logging(t *testing.T) {
	cfg := LogConfig{Level: "warn", Pretty: true}.Logging()

	assert.Equal(t, logging.LevelWarn, cfg.Level)
	assert.True(t, cfg.Pretty)
	assert.Equal(t, "movie-search", cfg.Service)
}
