package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, 3, cfg.StoreRetries)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CASAFLOW_ENV", EnvProduction)
	t.Setenv("DATABASE_URL", "postgres://localhost/casaflow")
	t.Setenv("MAX_REDIRECTS", "5")
	t.Setenv("STORE_RETRY_BACKOFF", "1s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://localhost/casaflow", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.Equal(t, time.Second, cfg.StoreRetryBackoff)
}

func TestLoad_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("MAX_REDIRECTS", "not-a-number")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxRedirects)
}

func TestValidate_BadEnvironment(t *testing.T) {
	t.Setenv("CASAFLOW_ENV", "staging")

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate_PoolBounds(t *testing.T) {
	t.Setenv("POOL_MIN_CONNS", "20")
	t.Setenv("POOL_MAX_CONNS", "5")

	_, err := Load()

	assert.Error(t, err)
}
