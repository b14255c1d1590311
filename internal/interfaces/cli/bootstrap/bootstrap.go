// Package bootstrap prepares the process environment shared by every command.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/config"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/constants"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// Init loads configuration for env and initialises the logger and business timezone.
func Init(env string) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = MapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := biztime.Init(cfg.Billing.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// OpenRedis connects to Redis when a component needs it and returns nil otherwise.
func OpenRedis(ctx context.Context, cfg *config.Config, log logger.Interface, required bool) (*redis.Client, error) {
	if !required {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
	return client, nil
}

// MapEnvToGinMode translates a deployment environment into a gin mode.
func MapEnvToGinMode(environment string) string {
	switch environment {
	case constants.EnvProduction, "prod", "release":
		return "release"
	case constants.EnvTest, "testing":
		return "test"
	default:
		return "debug"
	}
}
