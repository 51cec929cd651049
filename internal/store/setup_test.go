package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mvbarbosa/docpipe/internal/retry"
)

// newTestStore opens an in-memory sqlite store with the migrations applied.
// The pool is pinned to one connection: every sqlite :memory: connection is a
// separate database.
func newTestStore(t *testing.T, maxRetries int) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	st, err := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)), retry.Policy{MaxRetries: maxRetries})
	require.NoError(t, err)
	return st
}
