package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/metrics"
)

// MessageHandler 消息处理函数
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer 消息消费者
type Consumer struct {
	client        *redis.Client
	stream        Stream
	group         ConsumerGroup
	consumerName  string
	blockTimeout  time.Duration
	claimInterval time.Duration
	reclaimIdle   time.Duration
	retryLimit    int
	backoff       BackoffConfig

	handlers map[string]MessageHandler
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Stream        Stream
	Group         ConsumerGroup
	ConsumerName  string
	BlockTimeout  time.Duration
	ClaimInterval time.Duration
	RetryLimit    int
	Backoff       BackoffConfig
}

// NewConsumer 创建消息消费者
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = DefaultBackoffConfig()
	}

	return &Consumer{
		client:        client,
		stream:        cfg.Stream,
		group:         cfg.Group,
		consumerName:  cfg.ConsumerName,
		blockTimeout:  cfg.BlockTimeout,
		claimInterval: cfg.ClaimInterval,
		reclaimIdle:   max(5*time.Minute, cfg.Backoff.Max*2),
		retryLimit:    cfg.RetryLimit,
		backoff:       cfg.Backoff,
		handlers:      make(map[string]MessageHandler),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// RegisterHandler 注册消息处理器
func (c *Consumer) RegisterHandler(msgType string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = handler
}

// Start 启动消费者
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	// 确保消费者组存在
	err := c.client.XGroupCreateMkStream(ctx, string(c.stream), string(c.group), "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	go c.run(ctx)
	return nil
}

// Stop 停止消费者
func (c *Consumer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		close(c.stopCh)
		c.running = false
	}
}

// Done 消费循环退出后关闭
func (c *Consumer) Done() <-chan struct{} {
	return c.doneCh
}

// run 消费循环
func (c *Consumer) run(ctx context.Context) {
	defer close(c.doneCh)

	logger.Info(ctx, "consumer started",
		"stream", c.stream,
		"group", c.group,
		"consumer", c.consumerName,
	)

	lastClaim := time.Now().Add(-c.claimInterval)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "consumer stopped due to context cancellation")
			return
		case <-c.stopCh:
			logger.Info(ctx, "consumer stopped")
			return
		default:
		}

		c.processDuePending(ctx)
		if time.Since(lastClaim) >= c.claimInterval {
			c.reclaimStale(ctx)
			lastClaim = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    string(c.group),
			Consumer: c.consumerName,
			Streams:  []string{string(c.stream), ">"},
			Count:    10,
			Block:    c.blockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			logger.Error(ctx, "failed to read from stream", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, xmsg := range stream.Messages {
				c.processMessage(ctx, xmsg)
			}
		}
	}
}

// decode 解析流消息，格式错误返回 nil
func decode(xmsg redis.XMessage) *Message {
	raw, ok := xmsg.Values["data"].(string)
	if !ok {
		return nil
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil
	}
	return &msg
}

// processMessage 处理单条消息
func (c *Consumer) processMessage(ctx context.Context, xmsg redis.XMessage) {
	ctx, span := otelTracer.Start(ctx, "consumer.processMessage",
		trace.WithAttributes(
			attribute.String("stream", string(c.stream)),
			attribute.String("stream.message_id", xmsg.ID),
		))
	defer span.End()

	msg := decode(xmsg)
	if msg == nil {
		logger.Warn(ctx, "dropping malformed message", "message_id", xmsg.ID)
		c.observe("malformed")
		c.ack(ctx, xmsg.ID)
		return
	}

	if msg.UserID != "" {
		ctx = logger.WithContext(ctx, logger.UserIDKey, msg.UserID)
	}
	if reqID := msg.GetMetadata("request_id"); reqID != "" {
		ctx = logger.WithContext(ctx, logger.RequestIDKey, reqID)
	}
	if traceID := msg.GetMetadata("trace_id"); traceID != "" {
		ctx = logger.WithContext(ctx, logger.TraceIDKey, traceID)
	}

	span.SetAttributes(
		attribute.String("message.id", msg.ID),
		attribute.String("message.type", msg.Type),
	)

	c.mu.RLock()
	handler, exists := c.handlers[msg.Type]
	c.mu.RUnlock()

	if !exists {
		logger.Warn(ctx, "no handler for message type", "type", msg.Type)
		c.observe("unhandled")
		c.ack(ctx, xmsg.ID)
		return
	}

	if err := handler(ctx, msg); err != nil {
		span.RecordError(err)
		logger.Error(ctx, "handler failed", err, "message_id", msg.ID)
		c.handleFailure(ctx, xmsg, msg, err)
		return
	}

	c.observe("success")
	c.ack(ctx, xmsg.ID)
}

func (c *Consumer) observe(status string) {
	metrics.RedisStreamProcessed.WithLabelValues(string(c.stream), status).Inc()
}

// ack 确认消息
func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, string(c.stream), string(c.group), id).Err(); err != nil {
		logger.Error(ctx, "failed to ack message", err, "message_id", id)
	}
}

// handleFailure 处理失败，超过重试次数或不可重试时移入死信队列
func (c *Consumer) handleFailure(ctx context.Context, xmsg redis.XMessage, msg *Message, err error) {
	retryCount := c.getRetryCount(ctx, xmsg.ID)

	if errors.Is(err, ErrPermanent) || retryCount >= c.retryLimit {
		logger.Warn(ctx, "message moved to DLQ",
			"message_id", msg.ID,
			"retry_count", retryCount,
		)
		c.observe("dead")
		c.moveToDLQ(ctx, msg, err)
		c.ack(ctx, xmsg.ID)
		return
	}

	c.observe("retry")
	logger.Info(ctx, "message left pending for retry",
		"message_id", msg.ID,
		"retry_count", retryCount,
	)
}

// getRetryCount 通过 XPENDING 获取消息的投递次数
func (c *Consumer) getRetryCount(ctx context.Context, messageID string) int {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: string(c.stream),
		Group:  string(c.group),
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 0
	}
	return int(pending[0].RetryCount)
}

// moveToDLQ 移入死信队列
func (c *Consumer) moveToDLQ(ctx context.Context, msg *Message, cause error) {
	dlqMsg := map[string]interface{}{
		"original_stream": string(c.stream),
		"data":            msg,
		"error":           cause.Error(),
		"failed_at":       time.Now().Unix(),
	}

	data, err := json.Marshal(dlqMsg)
	if err != nil {
		logger.Error(ctx, "failed to marshal DLQ message", err, "message_id", msg.ID)
		return
	}
	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.stream.DLQStream(),
		Values: map[string]interface{}{"data": string(data)},
	}).Err(); err != nil {
		logger.Error(ctx, "failed to write DLQ message", err, "message_id", msg.ID)
	}
}

// claim 认领挂起消息
func (c *Consumer) claim(ctx context.Context, id string, minIdle time.Duration) []redis.XMessage {
	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   string(c.stream),
		Group:    string(c.group),
		Consumer: c.consumerName,
		MinIdle:  minIdle,
		Messages: []string{id},
	}).Result()
	if err != nil {
		logger.Error(ctx, "failed to claim pending message", err, "message_id", id)
		return nil
	}
	return claimed
}

// deadLetter 认领并移入死信队列
func (c *Consumer) deadLetter(ctx context.Context, id string, minIdle time.Duration) {
	for _, xmsg := range c.claim(ctx, id, minIdle) {
		if msg := decode(xmsg); msg != nil {
			c.moveToDLQ(ctx, msg, fmt.Errorf("message exceeded max retries"))
			c.observe("dead")
		}
		c.ack(ctx, xmsg.ID)
	}
}

func (c *Consumer) pending(ctx context.Context, consumer string) []redis.XPendingExt {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   string(c.stream),
		Group:    string(c.group),
		Start:    "-",
		End:      "+",
		Count:    20,
		Consumer: consumer,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Error(ctx, "failed to query pending messages", err)
		}
		return nil
	}
	return pending
}

// processDuePending 按退避时间重试本消费者的挂起消息
func (c *Consumer) processDuePending(ctx context.Context) {
	for _, p := range c.pending(ctx, c.consumerName) {
		retryCount := int(p.RetryCount)
		if retryCount >= c.retryLimit {
			c.deadLetter(ctx, p.ID, 0)
			continue
		}

		backoff := c.backoff.CalculateBackoff(retryCount)
		if p.Idle < backoff {
			continue
		}
		for _, xmsg := range c.claim(ctx, p.ID, backoff) {
			c.processMessage(ctx, xmsg)
		}
	}
}

// reclaimStale 接管其他消费者长时间未确认的消息
func (c *Consumer) reclaimStale(ctx context.Context) {
	if c.reclaimIdle <= 0 {
		return
	}

	for _, p := range c.pending(ctx, "") {
		if p.Consumer == c.consumerName || p.Idle < c.reclaimIdle {
			continue
		}
		if int(p.RetryCount) >= c.retryLimit {
			c.deadLetter(ctx, p.ID, c.reclaimIdle)
			continue
		}
		for _, xmsg := range c.claim(ctx, p.ID, c.reclaimIdle) {
			c.processMessage(ctx, xmsg)
		}
	}
}

// DLQLength 死信队列长度
func (c *Consumer) DLQLength(ctx context.Context) (int64, error) {
	return c.client.XLen(ctx, c.stream.DLQStream()).Result()
}

// MonitorDLQ 监控死信队列
func (c *Consumer) MonitorDLQ(ctx context.Context, alertThreshold int64) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			n, err := c.DLQLength(ctx)
			if err != nil {
				continue
			}
			metrics.RedisStreamDLQ.WithLabelValues(string(c.stream)).Set(float64(n))
			if n > alertThreshold {
				logger.Warn(ctx, "DLQ has pending messages",
					"stream", c.stream.DLQStream(),
					"count", n,
				)
			}
		}
	}
}
