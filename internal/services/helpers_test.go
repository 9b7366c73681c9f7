package services

import (
	"log/slog"
	"os"
	"testing"

	"favlinks/internal/config"
	"favlinks/internal/repository"

	"github.com/stretchr/testify/require"
)

func setupTestPool(t *testing.T) *repository.Pool {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	pool, err := repository.Open(config.Config{DBDriver: "sqlite", DBName: ":memory:"}, logger)
	require.NoError(t, err)
	require.NoError(t, pool.Migrate())
	t.Cleanup(func() { pool.Close() })
	return pool
}
