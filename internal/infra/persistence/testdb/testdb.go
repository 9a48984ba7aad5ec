// Package testdb opens throwaway in-memory SQLite databases migrated with the loyalty schema.
package testdb

import (
	"fmt"
	"testing"

	"loyalty/internal/infra/persistence/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a fresh database private to the calling test. SQLite has no row locks, so the
// pool is capped at one connection to serialize transactions the way row locks would.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(tb, err)

	sqlDB, err := db.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(tb, db.AutoMigrate(model.All()...))

	tb.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
