package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/database"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/scheduler"
	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/bootstrap"
	httpapi "github.com/mateatletas/tutorbilling/internal/interfaces/http"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, log, err := bootstrap.Init(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Infow("starting grace sweep worker", "environment", env, "interval", cfg.Billing.SweepInterval)

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg, log, cfg.Notifier.HasSink("redis"))
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	container, err := httpapi.NewContainer(database.Get(), redisClient, cfg, log)
	if err != nil {
		log.Fatalw("failed to build application container", "error", err)
	}

	sched, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		log.Fatalw("failed to create scheduler", "error", err)
	}
	if err := sched.RegisterGraceSweepJob(container.SweepUseCase(), cfg.Billing.SweepInterval); err != nil {
		log.Fatalw("failed to register grace sweep job", "error", err)
	}
	sched.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Infow("shutting down worker")

	if err := sched.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Warnw("notifications not fully delivered", "error", err)
	}

	log.Infow("worker stopped")
}
