// Package sweep runs one grace period sweep from the command line.
package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/database"
	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/bootstrap"
	httpapi "github.com/mateatletas/tutorbilling/internal/interfaces/http"
)

var (
	env     string
	timeout time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one grace period sweep",
		Long:  `Escalate expired grace periods to MOROSA and cancel long-delinquent subscriptions, then print the counts.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Upper bound for the sweep")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(env)
	if err != nil {
		return err
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg, log, cfg.Notifier.HasSink("redis"))
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

	result, sweepErr := container.SweepUseCase().Execute(ctx)

	// Notifications fire after commit; drain them before the process exits.
	if err := container.Shutdown(ctx); err != nil {
		log.Warnw("notifications not fully delivered", "error", err)
	}
	if sweepErr != nil {
		return fmt.Errorf("grace sweep failed: %w", sweepErr)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
