package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
	logger logger.Interface
}

func NewHealthHandler(checks map[string]Pinger, logger logger.Interface) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			h.logger.Warnw("health check failed", "component", name, "error", err)
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Success: false,
			Data:    status,
			Error:   &utils.ErrorInfo{Type: "unavailable", Message: "dependency unavailable"},
		})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "ok", status)
}
