package domain

import "time"

// StorageBackend selects where list and preferences blobs are persisted
type StorageBackend string

const (
	// StorageSQLite - single SQLite database in the data directory (default)
	StorageSQLite StorageBackend = "sqlite"
	// StorageFile - one JSON file per storage key in the data directory
	StorageFile StorageBackend = "file"
	// StorageRedis - Redis server at RedisAddr
	StorageRedis StorageBackend = "redis"
)

type Config struct {
	JikanBaseURL      string         `toml:"jikan_base_url" mapstructure:"jikan_base_url"`
	RequestDelay      time.Duration  `toml:"request_delay" mapstructure:"request_delay"`
	MaxRetries        uint           `toml:"max_retries" mapstructure:"max_retries"`
	RetryDelay        time.Duration  `toml:"retry_delay" mapstructure:"retry_delay"`
	CacheTTL          time.Duration  `toml:"cache_ttl" mapstructure:"cache_ttl"`
	HTTPTimeout       time.Duration  `toml:"http_timeout" mapstructure:"http_timeout"`
	StorageBackend    StorageBackend `toml:"storage_backend" mapstructure:"storage_backend"`
	DataDir           string         `toml:"data_dir" mapstructure:"data_dir"`
	RedisAddr         string         `toml:"redis_addr" mapstructure:"redis_addr"`
	DiscordWebhookURL string         `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
	LogLevel          string         `toml:"log_level" mapstructure:"log_level"`
	LogFile           string         `toml:"log_file" mapstructure:"log_file"`
	ServerAddr        string         `toml:"server_addr" mapstructure:"server_addr"`
}
