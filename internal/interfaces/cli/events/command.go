// Package events tails committed subscription transitions from Redis Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/pubsub"
	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/bootstrap"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect subscription transition events",
	}
	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Print transitions published to the Redis channel as JSON lines",
		RunE:  runWatch,
	})
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(env)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := bootstrap.OpenRedis(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer client.Close()

	bus := pubsub.NewRedisTransitionEventBus(client, cfg.Notifier.RedisChannel, log)
	enc := json.NewEncoder(os.Stdout)

	err = bus.Subscribe(ctx, func(_ context.Context, event pubsub.TransitionEvent) {
		if err := enc.Encode(event); err != nil {
			log.Warnw("failed to write event", "event_id", event.ID, "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("event subscription failed: %w", err)
	}
	return nil
}
