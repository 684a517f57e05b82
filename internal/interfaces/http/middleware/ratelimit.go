package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/infrastructure/persistence/redis"
	"leadgen-api/internal/interfaces/http/dto"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// Limit 窗口内允许的请求数
	Limit int
	// Window 窗口长度
	Window time.Duration
	// Scope 限流维度，同一 scope 的路由共享配额
	Scope string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (redis.Decision, error)
}

// RateLimit 按用户限流，未登录请求按客户端 IP 计数
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil || cfg.Limit <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}

	return func(c *gin.Context) {
		var key string
		if userID := c.GetString("user_id"); userID != "" {
			key = redis.BuildUserRateLimitKey(userID, cfg.Scope)
		} else {
			key = redis.BuildRateLimitKey("ip:"+c.ClientIP(), cfg.Scope)
		}

		d, err := limiter.Take(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}
		// 多个 scope 串联时以最后一个为准
		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
			dto.AbortWithError(c, errors.ErrTooManyRequests.WithDetail("rate limit exceeded for "+cfg.Scope))
			return
		}
		c.Next()
	}
}

// retryAfterSeconds 向上取整，至少 1 秒
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}
