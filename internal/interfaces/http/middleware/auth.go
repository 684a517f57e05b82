// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/interfaces/http/dto"
	"leadgen-api/pkg/errors"
	"leadgen-api/pkg/logger"
)

// Authenticator 会话令牌校验
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*principal.Principal, error)
}

// AuthConfig 认证配置
type AuthConfig struct {
	// CookieName 会话 Cookie 名称
	CookieName string
}

// Auth 要求登录的认证中间件
func Auth(cfg AuthConfig, authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cfg.CookieName)
		if token == "" {
			dto.AbortWithError(c, errors.ErrTokenMissing)
			return
		}
		p, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			dto.AbortWithError(c, err)
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

// OptionalAuth 令牌有效时注入调用方，否则按匿名请求放行
func OptionalAuth(cfg AuthConfig, authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c, cfg.CookieName); token != "" {
			if p, err := authn.Authenticate(c.Request.Context(), token); err == nil {
				setPrincipal(c, p)
			}
		}
		c.Next()
	}
}

// TokenFromRequest 依次读取 Bearer 头与会话 Cookie
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

// CurrentPrincipal 获取当前调用方，未登录时返回 nil
func CurrentPrincipal(c *gin.Context) *principal.Principal {
	p, _ := principal.FromContext(c.Request.Context())
	return p
}

func setPrincipal(c *gin.Context, p *principal.Principal) {
	c.Set("user_id", p.UserID)
	ctx := principal.WithPrincipal(c.Request.Context(), p)
	ctx = logger.WithContext(ctx, logger.UserIDKey, p.UserID)
	c.Request = c.Request.WithContext(ctx)
}

// DefaultSkipPaths 不记录访问指标的路径
var DefaultSkipPaths = []string{
	"/metrics",
}
