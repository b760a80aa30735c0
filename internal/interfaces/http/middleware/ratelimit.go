// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kaushal-ai-api/internal/config"
	"kaushal-ai-api/internal/infrastructure/persistence/redis"
	"kaushal-ai-api/pkg/logger"
)

// RateLimit 按用户限流中间件。限流键优先取路径中的 user_id，
// 没有用户维度的端点退化为按客户端 IP。
func RateLimit(cfg config.RateLimitConfig, limiter *redis.RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limit := cfg.PerUserLimit
	if limit <= 0 {
		limit = 30
	}
	window := cfg.PerUserWindow
	if window <= 0 {
		window = time.Minute
	}

	return func(c *gin.Context) {
		key := rateLimitKey(c)

		allowed, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			// 限流器故障按配置决定放行还是拒绝
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			if cfg.FailOpenOnErr {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code":     503,
				"message":  "rate limiter unavailable",
				"trace_id": c.GetString("trace_id"),
			})
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":     429,
				"message":  "rate limit exceeded",
				"trace_id": c.GetString("trace_id"),
			})
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = c.Request.URL.Path
	}

	if raw := c.Param("user_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			return redis.BuildUserRateLimitKey(id, endpoint)
		}
	}
	return "ratelimit:ip:" + c.ClientIP() + ":" + endpoint
}
