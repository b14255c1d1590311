package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/database"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/migration"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/scheduler"
	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/bootstrap"
	httpapi "github.com/mateatletas/tutorbilling/internal/interfaces/http"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

var (
	env           string
	autoMigrate   bool
	withScheduler bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the billing HTTP server: gateway webhooks, the admin API, health and metrics.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "Run the grace sweep in this process instead of a separate worker")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, log, err := bootstrap.Init(env)
	if err != nil {
		return err
	}

	log.Infow("starting server",
		"environment", env,
		"auto_migrate", autoMigrate,
		"with_scheduler", withScheduler)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if cfg.Server.IsProduction() {
			log.Warnw("auto-migration is enabled in production")
		}
		if err := migration.NewManager(&cfg.Database, log).Migrate(database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	ctx := context.Background()
	redisClient, err := bootstrap.OpenRedis(ctx, cfg, log, cfg.NeedsRedis())
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	container, err := httpapi.NewContainer(database.Get(), redisClient, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build application container: %w", err)
	}
	container.SetupRoutes()

	var sched *scheduler.SchedulerManager
	if withScheduler {
		sched, err = scheduler.NewSchedulerManager(log)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if err := sched.RegisterGraceSweepJob(container.SweepUseCase(), cfg.Billing.SweepInterval); err != nil {
			return fmt.Errorf("failed to register grace sweep: %w", err)
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      container.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Warnw("container shutdown incomplete", "error", err)
	}

	log.Infow("server exited gracefully")
	return nil
}
