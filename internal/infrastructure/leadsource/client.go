// Package leadsource 提供外部线索数据服务的 HTTP 客户端
package leadsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"leadgen-api/internal/config"
	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/metrics"
	pkgtracer "leadgen-api/pkg/tracer"
)

var tracer = otel.Tracer("leadsource")

const (
	defaultTimeout        = 30 * time.Second
	defaultBatchSize      = 10
	defaultMaxConcurrency = 4
	maxErrorBody          = 4 << 10
)

// Client 线索服务客户端
type Client struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	batchSize      int
	maxConcurrency int
}

// Option 客户端配置项
type Option func(*Client)

// WithBaseURL 设置服务地址
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient 设置 HTTP 客户端
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit 设置出站限速，rps <= 0 表示不限速
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithEmployeeBatch 设置员工查询的批大小与并发数
func WithEmployeeBatch(size, concurrency int) Option {
	return func(c *Client) {
		if size > 0 {
			c.batchSize = size
		}
		if concurrency > 0 {
			c.maxConcurrency = concurrency
		}
	}
}

// New 创建客户端
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: defaultTimeout},
		batchSize:      defaultBatchSize,
		maxConcurrency: defaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig 根据配置创建带追踪的客户端
func NewFromConfig(cfg *config.UpstreamConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return New(
		WithBaseURL(cfg.Endpoint),
		WithHTTPClient(&http.Client{
			Timeout:   timeout,
			Transport: pkgtracer.HTTPTransport(http.DefaultTransport),
		}),
		WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		WithEmployeeBatch(cfg.EmployeeBatchSize, cfg.MaxConcurrency),
	)
}

// request 一次上游调用
type request struct {
	method      string
	endpoint    string
	query       url.Values
	body        io.Reader
	contentType string
}

// get 执行 GET 请求并解析 JSON
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, result any) error {
	return c.do(ctx, request{method: http.MethodGet, endpoint: endpoint, query: query}, result)
}

// postJSON 执行 JSON POST 请求
func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    endpoint,
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, result)
}

func (c *Client) do(ctx context.Context, r request, result any) error {
	ctx, span := tracer.Start(ctx, "leadsource."+strings.TrimPrefix(r.endpoint, "/"),
		trace.WithAttributes(
			attribute.String("http.method", r.method),
			attribute.String("leadsource.endpoint", r.endpoint),
		))
	defer span.End()

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	start := time.Now()
	status := "error"
	defer func() {
		metrics.UpstreamCallTotal.WithLabelValues(r.endpoint, status).Inc()
		metrics.UpstreamCallDuration.WithLabelValues(r.endpoint).Observe(time.Since(start).Seconds())
	}()

	u, err := url.Parse(c.baseURL + r.endpoint)
	if err != nil {
		return fmt.Errorf("parsing URL: %w", err)
	}
	if r.query != nil {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		logger.Debug(ctx, "upstream request failed",
			"method", r.method,
			"endpoint", r.endpoint,
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return &APIError{StatusCode: 0, Message: err.Error(), Endpoint: r.endpoint, err: err}
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		apiErr := parseError(resp, r.endpoint)
		span.RecordError(apiErr)
		logger.Debug(ctx, "upstream request returned error",
			"method", r.method,
			"endpoint", r.endpoint,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			status = "decode_error"
			span.RecordError(err)
			return &APIError{StatusCode: resp.StatusCode, Message: "invalid response body", Endpoint: r.endpoint, err: err}
		}
	}

	logger.Debug(ctx, "upstream request completed",
		"method", r.method,
		"endpoint", r.endpoint,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// wait 等待限速令牌
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for upstream rate limiter: %w", err)
	}
	metrics.UpstreamThrottleWait.Observe(time.Since(start).Seconds())
	return nil
}

// Ping 检查上游是否可达，任何 HTTP 响应都视为可达
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
