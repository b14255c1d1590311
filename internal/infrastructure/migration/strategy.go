package migration

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

//go:embed scripts/*.sql
var scripts embed.FS

const scriptsDir = "scripts"

// Strategy defines the interface for different migration strategies
type Strategy interface {
	// Migrate executes the migration strategy
	Migrate(db *gorm.DB) error
	// GetName returns the strategy name
	GetName() string
}

// GooseStrategy applies the versioned SQL scripts embedded in the binary. The scripts
// target MySQL.
type GooseStrategy struct {
	logger logger.Interface
}

func NewGooseStrategy(log logger.Interface) *GooseStrategy {
	return &GooseStrategy{
		logger: log.With("component", "migration.goose"),
	}
}

func (s *GooseStrategy) prepare() error {
	goose.SetBaseFS(scripts)
	goose.SetLogger(&gooseLogger{logger: s.logger})
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

func (s *GooseStrategy) Migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := s.prepare(); err != nil {
		return err
	}

	currentVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		s.logger.Errorw("failed to get current version", "error", err)
		return fmt.Errorf("failed to get current version: %w", err)
	}

	s.logger.Infow("current migration status", "version", currentVersion)

	if err := goose.Up(sqlDB, scriptsDir); err != nil {
		s.logger.Errorw("migration failed", "error", err)
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}

	s.logger.Infow("migration completed successfully",
		"from_version", currentVersion,
		"to_version", finalVersion)

	return nil
}

func (s *GooseStrategy) GetName() string {
	return "goose"
}

func (s *GooseStrategy) MigrateDown(db *gorm.DB, steps int) error {
	s.logger.Infow("starting down migration", "steps", steps)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := s.prepare(); err != nil {
		return err
	}

	for i := 0; i < steps; i++ {
		if err := goose.Down(sqlDB, scriptsDir); err != nil {
			s.logger.Errorw("down migration failed", "error", err)
			return fmt.Errorf("failed to run down migration: %w", err)
		}
	}

	s.logger.Infow("down migration completed successfully")
	return nil
}

func (s *GooseStrategy) GetVersion(db *gorm.DB) (int64, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := s.prepare(); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

func (s *GooseStrategy) Status(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := s.prepare(); err != nil {
		return err
	}

	if err := goose.Status(sqlDB, scriptsDir); err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	return nil
}

// Create writes a new timestamped SQL migration into dir, the on-disk scripts directory
// that gets embedded on the next build.
func (s *GooseStrategy) Create(dir, name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	goose.SetLogger(&gooseLogger{logger: s.logger})
	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration %s: %w", name, err)
	}
	return nil
}

// GormAutoMigrateStrategy builds the schema from the persistence models. It is used for
// SQLite and local development, and installs the same ledger triggers the SQL scripts do.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{
		logger: log.With("component", "migration.auto"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AutoMigrateModels()...); err != nil {
		s.logger.Errorw("auto migrate failed", "error", err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	if err := InstallLedgerGuards(db); err != nil {
		s.logger.Errorw("failed to install ledger guards", "error", err)
		return err
	}
	s.logger.Infow("auto migrate completed", "dialect", db.Dialector.Name())
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}

type gooseLogger struct {
	logger logger.Interface
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
