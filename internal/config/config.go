package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/varoOP/animetrack/internal/domain"
	"github.com/varoOP/animetrack/internal/jikan"
)

const (
	DefaultHTTPTimeout = 15 * time.Second
	DefaultServerAddr  = "127.0.0.1:7878"
	DefaultRedisAddr   = "localhost:6379"
)

// DefaultDataDir is where blobs and the SQLite database live
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".animetrack"
	}
	return filepath.Join(home, ".animetrack")
}

// SetDefaults registers every key on v so env vars and flags resolve
func SetDefaults(v *viper.Viper) {
	v.SetDefault("jikan_base_url", jikan.DefaultBaseURL)
	v.SetDefault("request_delay", jikan.DefaultRequestDelay)
	v.SetDefault("max_retries", jikan.DefaultMaxRetries)
	v.SetDefault("retry_delay", jikan.DefaultRetryDelay)
	v.SetDefault("cache_ttl", jikan.DefaultCacheTTL)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("storage_backend", string(domain.StorageSQLite))
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("redis_addr", DefaultRedisAddr)
	v.SetDefault("discord_webhook_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("server_addr", DefaultServerAddr)
}

// Load loads configuration from the global viper instance:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (ANIMETRACK_*)
// 3. Flags bound by the CLI
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds and validates a Config from v
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		JikanBaseURL:      strings.TrimRight(strings.TrimSpace(v.GetString("jikan_base_url")), "/"),
		RequestDelay:      v.GetDuration("request_delay"),
		RetryDelay:        v.GetDuration("retry_delay"),
		CacheTTL:          v.GetDuration("cache_ttl"),
		HTTPTimeout:       v.GetDuration("http_timeout"),
		StorageBackend:    domain.StorageBackend(strings.ToLower(v.GetString("storage_backend"))),
		DataDir:           v.GetString("data_dir"),
		RedisAddr:         v.GetString("redis_addr"),
		DiscordWebhookURL: v.GetString("discord_webhook_url"),
		LogLevel:          v.GetString("log_level"),
		LogFile:           v.GetString("log_file"),
		ServerAddr:        v.GetString("server_addr"),
	}

	retries := v.GetInt("max_retries")
	if retries < 1 {
		return nil, fmt.Errorf("invalid max_retries: %d (must be at least 1)", retries)
	}
	cfg.MaxRetries = uint(retries)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot coerce
func Validate(cfg *domain.Config) error {
	u, err := url.Parse(cfg.JikanBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid jikan_base_url: %q", cfg.JikanBaseURL)
	}

	if cfg.RequestDelay < 0 {
		return fmt.Errorf("invalid request_delay: %s", cfg.RequestDelay)
	}
	if cfg.RetryDelay < 0 {
		return fmt.Errorf("invalid retry_delay: %s", cfg.RetryDelay)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("invalid cache_ttl: %s (must be positive)", cfg.CacheTTL)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("invalid http_timeout: %s (must be positive)", cfg.HTTPTimeout)
	}

	switch cfg.StorageBackend {
	case domain.StorageSQLite, domain.StorageFile:
		if cfg.DataDir == "" {
			return fmt.Errorf("data_dir is required for the %s storage backend", cfg.StorageBackend)
		}
	case domain.StorageRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis storage backend (set via config.yaml or ANIMETRACK_REDIS_ADDR environment variable)")
		}
	default:
		return fmt.Errorf("invalid storage_backend: %s (must be 'sqlite', 'file', or 'redis')", cfg.StorageBackend)
	}

	if cfg.DiscordWebhookURL != "" {
		if u, err := url.Parse(cfg.DiscordWebhookURL); err != nil || u.Scheme != "https" {
			return fmt.Errorf("invalid discord_webhook_url: must be an https URL")
		}
	}

	return nil
}
