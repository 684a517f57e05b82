package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker 依赖健康检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// UpstreamPinger 上游线索服务探活
type UpstreamPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db       HealthChecker
	redis    HealthChecker
	upstream UpstreamPinger
	version  string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db HealthChecker, redis HealthChecker, upstream UpstreamPinger, version string) *HealthHandler {
	return &HealthHandler{
		db:       db,
		redis:    redis,
		upstream: upstream,
		version:  version,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

// Ready 就绪检查接口，数据库与 Redis 必需，上游服务异常只标记 degraded
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"database": runCheck(ctx, h.db),
		"redis":    runCheck(ctx, h.redis),
	}
	ready := checks["database"].Status == "ok" && checks["redis"].Status == "ok"

	if h.upstream != nil {
		check := runCheck(ctx, pingAdapter{h.upstream})
		if check.Status == "error" {
			check.Status = "degraded"
		}
		checks["upstream"] = check
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func runCheck(ctx context.Context, checker HealthChecker) *readinessCheck {
	if checker == nil {
		return &readinessCheck{Status: "missing", Error: "not configured"}
	}
	start := time.Now()
	err := checker.HealthCheck(ctx)
	check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = "error"
		check.Error = err.Error()
	}
	return check
}

type pingAdapter struct {
	p UpstreamPinger
}

func (a pingAdapter) HealthCheck(ctx context.Context) error {
	return a.p.Ping(ctx)
}
