package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mateatletas/tutorbilling/internal/shared/config"
	applogger "github.com/mateatletas/tutorbilling/internal/shared/logger"
)

func TestGormAutoMigrateStrategy(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:automigrate?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	manager := NewManagerWithStrategy(NewGormAutoMigrateStrategy(applogger.NewNop()), applogger.NewNop())
	require.NoError(t, manager.Migrate(db))
	// Triggers are created with IF NOT EXISTS, so a second run is harmless.
	require.NoError(t, manager.Migrate(db))

	for _, table := range []string{"plans", "subscriptions", "subscription_histories", "payments", "processed_gateway_events"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	var triggers int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'trigger' AND tbl_name = ?", "subscription_histories").Scan(&triggers).Error)
	assert.Equal(t, int64(2), triggers)
}

func TestNewManagerStrategySelection(t *testing.T) {
	nop := applogger.NewNop()

	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{"sqlite always auto", config.DatabaseConfig{Driver: "sqlite", MigrationStrategy: "goose"}, "gorm_auto_migrate"},
		{"mysql goose", config.DatabaseConfig{Driver: "mysql", MigrationStrategy: "goose"}, "goose"},
		{"mysql auto", config.DatabaseConfig{Driver: "mysql", MigrationStrategy: "auto"}, "gorm_auto_migrate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewManager(&tt.cfg, nop).GetStrategy().GetName())
		})
	}
}
