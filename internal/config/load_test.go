package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		// Restore original environment
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// TestLoadDefaults verifies that Load fills every setting with its default
// when no environment variables are set.
func TestLoadDefaults(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"JOBD_SERVER_PORT":         "",
		"JOBD_SERVER_LOG_LEVEL":    "",
		"JOBD_JOBS_QUEUE_CAPACITY": "",
		"JOBD_JOBS_KEY_FORMAT":     "",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 0.0, cfg.Server.SubmitRate)
	assert.Equal(t, 10, cfg.Server.SubmitBurst)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, 100, cfg.Jobs.QueueCapacity)
	assert.Equal(t, 0, cfg.Jobs.WorkerCount)
	assert.Equal(t, 2, cfg.Jobs.FanoutFactor)
	assert.Equal(t, 0, cfg.Jobs.StrategyCount)
	assert.Equal(t, "short", cfg.Jobs.KeyFormat)
	assert.Equal(t, 10, cfg.Jobs.KeyLength)

	assert.Equal(t, time.Duration(0), cfg.Cache.StatusIdleTTL)
	assert.Equal(t, 2*time.Hour, cfg.Cache.StatusAgeTTL)
	assert.Equal(t, 30*time.Minute, cfg.Cache.ResultIdleTTL)
	assert.Equal(t, time.Hour, cfg.Cache.ResultAgeTTL)
	assert.Equal(t, 5*time.Second, cfg.Cache.StatsTTL)
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"JOBD_SERVER_PORT":           "9090",
		"JOBD_SERVER_LOG_LEVEL":      "debug",
		"JOBD_SERVER_SUBMIT_RATE":    "2.5",
		"JOBD_JOBS_QUEUE_CAPACITY":   "7",
		"JOBD_JOBS_WORKER_COUNT":     "3",
		"JOBD_JOBS_KEY_FORMAT":       "uuid",
		"JOBD_CACHE_RESULT_AGE_TTL":  "90s",
		"JOBD_CACHE_STATUS_IDLE_TTL": "15m",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 2.5, cfg.Server.SubmitRate)
	assert.Equal(t, 7, cfg.Jobs.QueueCapacity)
	assert.Equal(t, 3, cfg.Jobs.WorkerCount)
	assert.Equal(t, "uuid", cfg.Jobs.KeyFormat)
	assert.Equal(t, 90*time.Second, cfg.Cache.ResultAgeTTL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.StatusIdleTTL)
}

// TestLoadWithFile verifies file values are read and that environment
// variables still take precedence over them.
func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobd.yaml")
	content := `
server:
  port: 7070
jobs:
  queue_capacity: 42
  fanout_factor: 3
cache:
  stats_ttl: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cleanup := setupEnv(t, map[string]string{
		"JOBD_SERVER_PORT":         "",
		"JOBD_JOBS_QUEUE_CAPACITY": "64",
	})
	defer cleanup()

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "file value")
	assert.Equal(t, 64, cfg.Jobs.QueueCapacity, "env wins over file")
	assert.Equal(t, 3, cfg.Jobs.FanoutFactor)
	assert.Equal(t, time.Minute, cfg.Cache.StatsTTL)
	assert.Equal(t, "info", cfg.Server.LogLevel, "default survives")
}

func TestLoadWithFile_Missing(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Invalid port number",
			envVars: map[string]string{"JOBD_SERVER_PORT": "999999"},
		},
		{
			name:    "Invalid log level",
			envVars: map[string]string{"JOBD_SERVER_LOG_LEVEL": "invalid-level"},
		},
		{
			name:    "Zero queue capacity",
			envVars: map[string]string{"JOBD_JOBS_QUEUE_CAPACITY": "0"},
		},
		{
			name:    "Negative worker count",
			envVars: map[string]string{"JOBD_JOBS_WORKER_COUNT": "-1"},
		},
		{
			name:    "Unknown key format",
			envVars: map[string]string{"JOBD_JOBS_KEY_FORMAT": "sequential"},
		},
		{
			name:    "Key too short",
			envVars: map[string]string{"JOBD_JOBS_KEY_LENGTH": "2"},
		},
		{
			name:    "Negative TTL",
			envVars: map[string]string{"JOBD_CACHE_RESULT_AGE_TTL": "-5m"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanup := setupEnv(t, tc.envVars)
			defer cleanup()

			cfg, err := Load()

			assert.Error(t, err, "Load() should return an error with invalid configuration")
			if err != nil {
				assert.Contains(t, err.Error(), "validation failed", "Error message should contain expected substring")
			}
			assert.Nil(t, cfg, "Config should be nil when an error occurs")
		})
	}
}
