// Package router 提供 HTTP 路由配置
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leadgen-api/internal/config"
	"leadgen-api/internal/interfaces/http/handler"
	"leadgen-api/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Collection *handler.CollectionHandler
	History    *handler.HistoryHandler
	Lead       *handler.LeadHandler
	Mail       *handler.MailHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *Handlers
	authn    middleware.Authenticator
	limiter  middleware.RateLimiter
}

// New 创建新的路由器
func New(cfg *config.Config, handlers *Handlers, authn middleware.Authenticator, limiter middleware.RateLimiter) *Router {
	// 设置 Gin 模式
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		authn:    authn,
		limiter:  limiter,
	}
	if n := cfg.Server.HTTP.MaxMultipartMemory; n > 0 {
		r.engine.MaxMultipartMemory = n
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	// 基础中间件
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	// CORS 中间件
	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	// 追踪中间件
	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	// 指标中间件
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.metricsPath(), "/health", "/ready", "/live"))
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	// Prometheus 指标端点
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.metricsPath(), gin.WrapH(promhttp.Handler()))
	}

	authCfg := middleware.AuthConfig{CookieName: r.cfg.Auth.CookieName}
	rl := r.cfg.Security.RateLimit

	RegisterV1Routes(r.engine.Group("/v1"), r.handlers, RouteMiddleware{
		Auth:         middleware.Auth(authCfg, r.authn),
		OptionalAuth: middleware.OptionalAuth(authCfg, r.authn),
		RateLimit: middleware.RateLimit(middleware.RateLimitConfig{
			Enabled: rl.Enabled,
			Limit:   rl.RequestsPerSecond,
			Window:  time.Second,
			Scope:   "api",
		}, r.limiter),
		UpstreamLimit: middleware.RateLimit(middleware.RateLimitConfig{
			Enabled: rl.Enabled,
			Limit:   rl.UpstreamPerMinute,
			Window:  time.Minute,
			Scope:   "upstream",
		}, r.limiter),
	})
}

func (r *Router) metricsPath() string {
	if p := r.cfg.Observability.Metrics.Path; p != "" {
		return p
	}
	return "/metrics"
}
