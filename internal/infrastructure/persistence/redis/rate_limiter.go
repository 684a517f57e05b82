package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Decision 一次限流判定的结果
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter 窗口内最早一次请求过期前的等待时间，仅在拒绝时有意义
	RetryAfter time.Duration
}

// RateLimiter 基于有序集合的滑动窗口限流器
type RateLimiter struct {
	client *Client
	seq    atomic.Uint64
	now    func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Take 尝试在窗口内占用一次配额，返回判定结果与剩余配额
func (l *RateLimiter) Take(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Take")
	defer span.End()
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
	)

	now := l.now().UnixMilli()
	d := Decision{Limit: limit}

	pipe := l.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now-window.Milliseconds(), 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return d, fmt.Errorf("rate limit lookup: %w", err)
	}

	used := int(countCmd.Val())
	if used >= limit {
		d.RetryAfter = window
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			d.RetryAfter = time.Duration(int64(oldest[0].Score)+window.Milliseconds()-now) * time.Millisecond
		}
		span.SetAttributes(attribute.Bool("ratelimit.allowed", false))
		return d, nil
	}

	pipe = l.client.rdb.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: fmt.Sprintf("%d-%d", now, l.seq.Add(1))})
	pipe.PExpire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return d, fmt.Errorf("rate limit record: %w", err)
	}

	d.Allowed = true
	d.Remaining = limit - used - 1
	span.SetAttributes(
		attribute.Bool("ratelimit.allowed", true),
		attribute.Int("ratelimit.remaining", d.Remaining),
	)
	return d, nil
}

// BuildRateLimitKey 构建限流键
func BuildRateLimitKey(scope, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, endpoint)
}

// BuildUserRateLimitKey 构建用户限流键
func BuildUserRateLimitKey(userID, endpoint string) string {
	return fmt.Sprintf("ratelimit:user:%s:%s", userID, endpoint)
}
