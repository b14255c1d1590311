package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mateatletas/tutorbilling/internal/shared/constants"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

type AdminTokenMiddleware struct {
	token  string
	logger logger.Interface
}

func NewAdminTokenMiddleware(token string, logger logger.Interface) *AdminTokenMiddleware {
	return &AdminTokenMiddleware{
		token:  token,
		logger: logger,
	}
}

// RequireAdmin accepts requests carrying the configured bearer token. With no token
// configured every request is refused.
func (m *AdminTokenMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "admin API is disabled")
			return
		}

		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(m.token)) != 1 {
			m.logger.Warnw("rejected admin request with invalid token",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP())
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization token")
			return
		}

		c.Next()
	}
}
