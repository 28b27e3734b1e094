// Package config provides application configuration for the orchestration
// core, read from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment names. Production refuses to run without a durable checkpoint
// backend.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds all orchestration configuration.
type Config struct {
	// Environment is the deployment mode (production or development).
	Environment string
	// DatabaseURL is the durable checkpoint backend connection string.
	// Empty means no durable backend is configured.
	DatabaseURL string
	// SQLitePath is the embedded fallback store location.
	SQLitePath string
	// ToolRegistryPath optionally points to a YAML tool registry file merged
	// over the built-in defaults.
	ToolRegistryPath string

	// MaxRedirects bounds the worker handoff loop per turn.
	MaxRedirects int
	// HistoryWindow bounds the sanitized message window sent to the model.
	HistoryWindow int
	// MaxModelCalls bounds generate/execute iterations within one turn.
	MaxModelCalls int

	// StoreRetries and StoreRetryBackoff tune the bounded retry around
	// checkpoint load/save operations.
	StoreRetries      int
	StoreRetryBackoff time.Duration

	Pool PoolConfig
}

// PoolConfig tunes the pooled relational checkpoint backend.
type PoolConfig struct {
	MinConns          int32
	MaxConns          int32
	ConnectTimeout    time.Duration
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
	KeepAlive         time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:       getEnv("CASAFLOW_ENV", EnvDevelopment),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/casaflow.db"),
		ToolRegistryPath:  getEnv("TOOL_REGISTRY_PATH", ""),
		MaxRedirects:      getEnvInt("MAX_REDIRECTS", 3),
		HistoryWindow:     getEnvInt("HISTORY_WINDOW", 10),
		MaxModelCalls:     getEnvInt("MAX_MODEL_CALLS", 8),
		StoreRetries:      getEnvInt("STORE_RETRIES", 3),
		StoreRetryBackoff: getEnvDuration("STORE_RETRY_BACKOFF", 250*time.Millisecond),
		Pool: PoolConfig{
			MinConns:          int32(getEnvInt("POOL_MIN_CONNS", 2)),
			MaxConns:          int32(getEnvInt("POOL_MAX_CONNS", 10)),
			ConnectTimeout:    getEnvDuration("POOL_CONNECT_TIMEOUT", 5*time.Second),
			MaxConnIdleTime:   getEnvDuration("POOL_MAX_CONN_IDLE", 5*time.Minute),
			MaxConnLifetime:   getEnvDuration("POOL_MAX_CONN_LIFETIME", 30*time.Minute),
			HealthCheckPeriod: getEnvDuration("POOL_HEALTH_CHECK_PERIOD", time.Minute),
			KeepAlive:         getEnvDuration("POOL_KEEPALIVE", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Environment != EnvProduction && c.Environment != EnvDevelopment {
		return fmt.Errorf("CASAFLOW_ENV must be %q or %q, got %q", EnvProduction, EnvDevelopment, c.Environment)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("MAX_REDIRECTS must be >= 0")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be > 0")
	}
	if c.MaxModelCalls <= 0 {
		return fmt.Errorf("MAX_MODEL_CALLS must be > 0")
	}
	if c.StoreRetries < 1 {
		return fmt.Errorf("STORE_RETRIES must be >= 1")
	}
	if c.Pool.MaxConns < c.Pool.MinConns {
		return fmt.Errorf("POOL_MAX_CONNS must be >= POOL_MIN_CONNS")
	}
	return nil
}

// IsProduction reports whether the deployment is flagged production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
