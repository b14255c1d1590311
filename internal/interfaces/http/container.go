package http

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	paymentUsecases "github.com/mateatletas/tutorbilling/internal/application/payment/usecases"
	subscriptionServices "github.com/mateatletas/tutorbilling/internal/application/subscription/services"
	subscriptionUsecases "github.com/mateatletas/tutorbilling/internal/application/subscription/usecases"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/config"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/metrics"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/notifier"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/ratelimit"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/repository"
	"github.com/mateatletas/tutorbilling/internal/interfaces/http/handlers"
	"github.com/mateatletas/tutorbilling/internal/interfaces/http/middleware"
	"github.com/mateatletas/tutorbilling/internal/shared/db"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// Container wires repositories, the transition engine, use cases and handlers for one
// process. Shutdown drains pending notifications and releases broker connections.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	dispatcher *notifier.Dispatcher
	closers    []io.Closer

	transitionEngine *subscriptionServices.TransitionEngine
	reconcileUC      *paymentUsecases.ReconcileGatewayEventUseCase
	sweepUC          *subscriptionUsecases.SweepGracePeriodsUseCase

	webhookHandler      *handlers.WebhookHandler
	planHandler         *handlers.PlanHandler
	subscriptionHandler *handlers.SubscriptionHandler
	healthHandler       *handlers.HealthHandler

	adminMiddleware     *middleware.AdminTokenMiddleware
	webhookMiddleware   *middleware.WebhookSignatureMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
}

// NewContainer builds every component from cfg. redisClient may be nil when no Redis sink
// is configured.
func NewContainer(database *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     database,
		cfg:    cfg,
		log:    log,
		redis:  redisClient,
	}

	dispatcher, closers, err := notifier.Build(cfg.Notifier, redisClient, log)
	c.closers = closers
	if err != nil {
		c.closeAll()
		return nil, fmt.Errorf("failed to build notifier: %w", err)
	}
	c.dispatcher = dispatcher

	c.initBilling()
	c.initHandlers()
	return c, nil
}

func (c *Container) initBilling() {
	subscriptionRepo := repository.NewSubscriptionRepository(c.db, c.log)
	historyRepo := repository.NewHistoryRepository(c.db, c.log)
	planRepo := repository.NewPlanRepository(c.db, c.log)
	paymentRepo := repository.NewPaymentRepository(c.db)
	eventRepo := repository.NewProcessedEventRepository(c.db)
	txMgr := db.NewTransactionManager(c.db)
	gracePolicy := subscription.NewGracePolicy(c.cfg.Billing.GracePeriodDays)

	c.transitionEngine = subscriptionServices.NewTransitionEngine(
		subscriptionRepo, historyRepo, txMgr, c.dispatcher, gracePolicy, c.log.Named("transition"),
	)

	c.reconcileUC = paymentUsecases.NewReconcileGatewayEventUseCase(
		subscriptionRepo, paymentRepo, eventRepo, c.transitionEngine, txMgr, c.log.Named("reconcile"),
	)
	c.reconcileUC.SetMaxAttempts(c.cfg.Billing.MaxReconcileAttempts)
	c.reconcileUC.SetPausedAsCancellation(c.cfg.Billing.PausedAsCancellation)

	c.sweepUC = subscriptionUsecases.NewSweepGracePeriodsUseCase(
		subscriptionRepo, c.transitionEngine, c.cfg.Billing.DelinquentCancelAfterDays, c.log.Named("sweep"),
	)

	if c.cfg.Metrics.Enabled {
		recorder := metrics.NewRecorder()
		c.transitionEngine.SetRecorder(recorder)
		c.reconcileUC.SetRecorder(recorder)
		c.sweepUC.SetRecorder(recorder)
		c.dispatcher.SetRecorder(recorder)
	}

	c.planHandler = handlers.NewPlanHandler(
		subscriptionUsecases.NewCreatePlanUseCase(planRepo, c.log),
		subscriptionUsecases.NewDeactivatePlanUseCase(planRepo, c.log),
		c.log,
	)
	c.subscriptionHandler = handlers.NewSubscriptionHandler(
		subscriptionUsecases.NewCreateSubscriptionUseCase(subscriptionRepo, planRepo, c.log),
		subscriptionUsecases.NewRequestCancellationUseCase(c.transitionEngine, c.log),
		subscriptionUsecases.NewGetSubscriptionHistoryUseCase(subscriptionRepo, historyRepo, c.log),
		subscriptionUsecases.NewCheckAccessUseCase(subscriptionRepo, gracePolicy, c.log),
		c.log,
	)
}

func (c *Container) initHandlers() {
	c.webhookHandler = handlers.NewWebhookHandler(c.reconcileUC, c.log.Named("webhook"))

	checks := map[string]handlers.Pinger{}
	if sqlDB, err := c.db.DB(); err == nil {
		checks["database"] = sqlDB
	}
	if c.redis != nil {
		checks["redis"] = redisPinger{c.redis}
	}
	c.healthHandler = handlers.NewHealthHandler(checks, c.log)

	c.adminMiddleware = middleware.NewAdminTokenMiddleware(c.cfg.Server.AdminToken, c.log)
	c.webhookMiddleware = middleware.NewWebhookSignatureMiddleware(
		c.cfg.Webhook.Secret,
		c.cfg.Webhook.SignatureTolerance,
		c.cfg.Server.IsProduction(),
		c.log,
	)

	if c.cfg.RateLimit.Enabled && c.redis != nil {
		c.rateLimitMiddleware = middleware.NewRateLimitMiddleware(
			ratelimit.NewRedisRateLimiter(c.redis, ""),
			ratelimit.Limit{
				PerMinute: c.cfg.RateLimit.RequestsPerMinute,
				PerHour:   c.cfg.RateLimit.RequestsPerHour,
			},
			c.log.Named("ratelimit"),
		)
	}
}

// Engine returns the gin engine. Call SetupRoutes first.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// SweepUseCase returns the grace sweep for the scheduler and the sweep command.
func (c *Container) SweepUseCase() *subscriptionUsecases.SweepGracePeriodsUseCase {
	return c.sweepUC
}

// Shutdown waits for in-flight notifications and closes broker connections.
func (c *Container) Shutdown(ctx context.Context) error {
	err := c.dispatcher.Close(ctx)
	if err != nil {
		c.log.Warnw("notifications still pending at shutdown", "error", err)
	}
	c.closeAll()
	return err
}

func (c *Container) closeAll() {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.log.Warnw("failed to close notifier sink", "error", err)
		}
	}
	c.closers = nil
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
