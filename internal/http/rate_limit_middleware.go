package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"edge-auth/internal/service"
)

// RateLimitMiddleware limita por IP de cliente dentro de un scope. La IP sale
// de c.ClientIP, que solo lee X-Forwarded-For de proxies en TRUSTED_PROXIES.
// Un limiter nil deja pasar todo.
func RateLimitMiddleware(limiter service.RateLimiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if errors.Is(err, service.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": service.ErrRateLimited.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}
