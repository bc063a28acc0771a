package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "JOBD"

// Load configuration from defaults and environment variables.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration like Load, additionally reading the file
// at path when path is not empty. Environment variables take precedence over
// values from the file.
func LoadWithFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	// JOBD_JOBS_QUEUE_CAPACITY overrides jobs.queue_capacity
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.submit_rate", 0.0)
	v.SetDefault("server.submit_burst", 10)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("jobs.queue_capacity", 100)
	v.SetDefault("jobs.worker_count", 0)
	v.SetDefault("jobs.fanout_factor", 2)
	v.SetDefault("jobs.strategy_count", 0)
	v.SetDefault("jobs.key_format", "short")
	v.SetDefault("jobs.key_length", 10)

	v.SetDefault("cache.status_idle_ttl", "0s")
	v.SetDefault("cache.status_age_ttl", "2h")
	v.SetDefault("cache.result_idle_ttl", "30m")
	v.SetDefault("cache.result_age_ttl", "1h")
	v.SetDefault("cache.stats_ttl", "5s")
}
