package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware limits requests per client ip. When the limiter itself fails
// the request is let through and the failure logged.
func Middleware(l Limiter, limit int, logger *zap.Logger, onReject func(c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		res, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", zap.String("ip", ip), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.ResetIn.Seconds()))))
			logger.Info("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
			if onReject != nil {
				onReject(c)
			}
			if !c.IsAborted() {
				c.AbortWithStatus(http.StatusTooManyRequests)
			}
			return
		}

		c.Next()
	}
}
