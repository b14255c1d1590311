package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mateatletas/tutorbilling/internal/interfaces/http/middleware"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.RequestID())
	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.Logger(c.log))

	c.engine.GET("/health", c.healthHandler.Health)
	if c.cfg.Metrics.Enabled {
		path := c.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		c.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	webhooks := c.engine.Group("/webhooks")
	{
		webhooks.POST("/gateway", c.webhookMiddleware.Verify(), c.webhookHandler.HandleGatewayEvent)
	}

	admin := c.engine.Group("/admin")
	if c.rateLimitMiddleware != nil {
		admin.Use(c.rateLimitMiddleware.Limit("admin"))
	}
	admin.Use(c.adminMiddleware.RequireAdmin())
	{
		admin.POST("/plans", c.planHandler.CreatePlan)
		admin.POST("/plans/:id/deactivate", c.planHandler.DeactivatePlan)

		admin.POST("/subscriptions", c.subscriptionHandler.CreateSubscription)
		admin.POST("/subscriptions/:id/cancel", c.subscriptionHandler.CancelSubscription)
		admin.GET("/subscriptions/:id/history", c.subscriptionHandler.GetHistory)

		admin.GET("/tutors/:tutor_id/access", c.subscriptionHandler.CheckAccess)
	}
}
