package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mateatletas/tutorbilling/internal/shared/constants"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

const maxRequestIDLength = 64

// RequestID propagates the caller's X-Request-ID or assigns a fresh one, and echoes it on
// the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, requestID)
		c.Header(constants.HeaderXRequestID, requestID)
		c.Next()
	}
}

// Logger logs one line per request. Server errors log at error level, client errors at
// warn, and the rest at debug so webhook traffic stays quiet in production.
func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if requestID := c.GetString(constants.ContextKeyRequestID); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("request failed", args...)
		case status >= 400:
			log.Warnw("request rejected", args...)
		default:
			log.Debugw("request served", args...)
		}
	}
}
