package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/ratelimit"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

type limiter interface {
	Allow(ctx context.Context, key string, limit ratelimit.Limit) (ratelimit.Decision, error)
}

type RateLimitMiddleware struct {
	limiter limiter
	limit   ratelimit.Limit
	logger  logger.Interface
}

func NewRateLimitMiddleware(l limiter, limit ratelimit.Limit, logger logger.Interface) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: l,
		limit:   limit,
		logger:  logger,
	}
}

// Limit throttles requests per client IP and scope. Limiter failures let the request through.
func (m *RateLimitMiddleware) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		decision, err := m.limiter.Allow(c.Request.Context(), key, m.limit)
		if err != nil {
			m.logger.Warnw("rate limiter unavailable, allowing request",
				"scope", scope,
				"error", err)
			c.Next()
			return
		}

		if decision.Remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		}

		if !decision.Allowed {
			seconds := int(decision.RetryAfter.Seconds())
			c.Header("Retry-After", strconv.Itoa(seconds))
			m.logger.Warnw("rate limit exceeded",
				"scope", scope,
				"client_ip", c.ClientIP(),
				"retry_after_seconds", seconds)
			utils.ErrorResponse(c, http.StatusTooManyRequests, "too many requests")
			return
		}

		c.Next()
	}
}
