package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Jobs   JobsConfig   `mapstructure:"jobs"   validate:"required"`
	Cache  CacheConfig  `mapstructure:"cache"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// SubmitRate limits job submissions per second across all clients.
	// Zero disables the limiter.
	SubmitRate  float64 `mapstructure:"submit_rate"  validate:"gte=0"`
	SubmitBurst int     `mapstructure:"submit_burst" validate:"gte=1"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// JobsConfig sizes the job queue and worker pool and picks the key format.
type JobsConfig struct {
	QueueCapacity int `mapstructure:"queue_capacity" validate:"gt=0"`

	// WorkerCount fixes the pool size. Zero derives it from hardware
	// parallelism divided by FanoutFactor × StrategyCount.
	WorkerCount   int `mapstructure:"worker_count"   validate:"gte=0"`
	FanoutFactor  int `mapstructure:"fanout_factor"  validate:"gte=1"`
	StrategyCount int `mapstructure:"strategy_count" validate:"gte=0"`

	KeyFormat string `mapstructure:"key_format" validate:"required,oneof=short uuid"`
	KeyLength int    `mapstructure:"key_length" validate:"gte=4,lte=64"`
}

// CacheConfig holds the TTLs of the status, result and stats caches.
// A TTL of zero means unbounded.
type CacheConfig struct {
	StatusIdleTTL time.Duration `mapstructure:"status_idle_ttl" validate:"gte=0"`
	StatusAgeTTL  time.Duration `mapstructure:"status_age_ttl"  validate:"gte=0"`
	ResultIdleTTL time.Duration `mapstructure:"result_idle_ttl" validate:"gte=0"`
	ResultAgeTTL  time.Duration `mapstructure:"result_age_ttl"  validate:"gte=0"`
	StatsTTL      time.Duration `mapstructure:"stats_ttl"       validate:"gte=0"`
}
