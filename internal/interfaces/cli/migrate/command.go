package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/config"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/database"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/migration"
	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/bootstrap"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

var (
	env        string
	name       string
	scriptsDir string
	steps      int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including running migrations, checking status, and creating new migration files.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending migrations. SQLite databases are built from the models instead of the SQL scripts.`,
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new SQL migration",
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	cmd.Flags().StringVar(&scriptsDir, "dir", "./internal/infrastructure/migration/scripts", "Directory holding the SQL scripts")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func initEnv() (*config.Config, logger.Interface, error) {
	cfg, log, err := bootstrap.Init(env)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, log, nil
}

// gooseOnly rejects commands that need versioned scripts on SQLite or auto strategy setups.
func gooseOnly(cfg *config.Config, log logger.Interface) (*migration.GooseStrategy, error) {
	strategy, ok := migration.NewManager(&cfg.Database, log).GetStrategy().(*migration.GooseStrategy)
	if !ok {
		return nil, fmt.Errorf("command is only supported with the goose strategy (driver %s)", cfg.Database.Driver)
	}
	return strategy, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running up migrations", "environment", env)

	if err := migration.NewManager(&cfg.Database, log).Migrate(database.Get()); err != nil {
		return err
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	strategy, err := gooseOnly(cfg, log)
	if err != nil {
		return err
	}

	log.Infow("running down migrations", "environment", env, "steps", steps)
	if err := strategy.MigrateDown(database.Get(), steps); err != nil {
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	strategy, err := gooseOnly(cfg, log)
	if err != nil {
		return err
	}

	version, err := strategy.GetVersion(database.Get())
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("\nMigration Status:\n")
	fmt.Printf("  Environment:     %s\n", env)
	fmt.Printf("  Current Version: %d\n", version)

	if err := strategy.Status(database.Get()); err != nil {
		return fmt.Errorf("failed to get detailed status: %w", err)
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	_, log, err := bootstrap.Init(env)
	if err != nil {
		return err
	}

	if err := migration.NewGooseStrategy(log).Create(scriptsDir, name); err != nil {
		return err
	}

	log.Infow("migration created", "name", name, "dir", scriptsDir)
	return nil
}
