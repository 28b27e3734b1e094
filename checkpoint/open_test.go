package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hmoralesp/casaflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_ProductionWithoutDurableBackendIsFatal(t *testing.T) {
	cfg := &config.Config{Environment: config.EnvProduction}

	_, err := Open(context.Background(), cfg, nil)

	assert.ErrorIs(t, err, ErrDurabilityRequired)
}

func TestOpen_DevelopmentFallsBackToSQLite(t *testing.T) {
	cfg := &config.Config{
		Environment: config.EnvDevelopment,
		SQLitePath:  filepath.Join(t.TempDir(), "casaflow.db"),
	}

	store, err := Open(context.Background(), cfg, nil)

	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	assert.IsType(t, &SQLiteStore{}, store)
}

func TestOpen_DevelopmentFallsBackToMemory(t *testing.T) {
	// Make the sqlite path unusable by placing a regular file where the
	// parent directory should be.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	cfg := &config.Config{
		Environment: config.EnvDevelopment,
		SQLitePath:  filepath.Join(blocker, "casaflow.db"),
	}

	store, err := Open(context.Background(), cfg, nil)

	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}
