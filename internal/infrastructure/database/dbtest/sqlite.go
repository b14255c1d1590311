// Package dbtest opens migrated in-memory SQLite databases for integration tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/migration"
	applogger "github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// Open returns a migrated database private to the test. The connection pool is pinned to
// one connection so every statement sees the same in-memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(memoryDSN(t)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.NewGormAutoMigrateStrategy(applogger.NewNop()).Migrate(db))
	return db
}

func memoryDSN(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	return "file:" + name + "?mode=memory&cache=shared"
}
