package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb), mr
}

type payload struct {
	Name string `json:"name"`
}

func TestCache_LoadCachesAndDedups(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	var calls atomic.Int32
	loader := func() (payload, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return payload{Name: "acme"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Load(ctx, cache, CompanyInfoKey("u1", "c1"), time.Minute, loader)
			assert.NoError(t, err)
			assert.Equal(t, "acme", got.Name)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, mr.Exists("company:info:u1:c1"))

	got, err := Load(ctx, cache, CompanyInfoKey("u1", "c1"), time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_LoaderErrorNotCached(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client)

	_, err := Load(context.Background(), cache, "k:x", time.Minute, func() (payload, error) {
		return payload{}, errors.New("upstream down")
	})
	assert.EqualError(t, err, "upstream down")
	assert.False(t, mr.Exists("k:x"))
}

func TestCache_InvalidateSearch(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, SearchReplayKey("u1", "s1"), []string{"a"}, time.Minute))
	require.NoError(t, cache.Set(ctx, SearchReplayKey("u1", "s2"), []string{"b"}, time.Minute))
	require.NoError(t, cache.InvalidateSearch(ctx, "u1", "s1"))
	assert.False(t, mr.Exists(SearchReplayKey("u1", "s1")))
	assert.True(t, mr.Exists(SearchReplayKey("u1", "s2")))

	require.NoError(t, cache.InvalidatePattern(ctx, "search:replay:u1:*"))
	assert.False(t, mr.Exists(SearchReplayKey("u1", "s2")))
}

func TestCache_InvalidateUser(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	keys := []string{
		CompanyInfoKey("u1", "c1"),
		EmployeesKey("u1", "c1"),
		SearchReplayKey("u1", "s1"),
		CompanyInfoKey("u2", "c1"),
		SitePreviewKey("https://acme.io"),
	}
	for _, k := range keys {
		require.NoError(t, cache.Set(ctx, k, "v", time.Minute))
	}

	require.NoError(t, cache.InvalidateUser(ctx, "u1"))
	assert.False(t, mr.Exists(keys[0]))
	assert.False(t, mr.Exists(keys[1]))
	assert.False(t, mr.Exists(keys[2]))
	assert.True(t, mr.Exists(keys[3]))
	assert.True(t, mr.Exists(keys[4]))
}

func TestRateLimiter_Take(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()
	key := BuildUserRateLimitKey("u1", "search")

	base := time.UnixMilli(1_700_000_000_000)
	now := base
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		d, err := limiter.Take(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 2-i, d.Remaining)
		assert.Equal(t, 3, d.Limit)
		now = now.Add(10 * time.Second)
	}

	d, err := limiter.Take(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	// 最早一次请求在 base，窗口在 base+60s 释放
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	// 最早的请求滑出窗口后恢复一次配额
	now = base.Add(time.Minute + time.Millisecond)
	d, err = limiter.Take(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Zero(t, d.Remaining)

	other, err := limiter.Take(ctx, BuildUserRateLimitKey("u2", "search"), 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, other.Remaining)
}

func TestStateStore_ConsumeOnce(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewStateStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "st-1", &OAuthState{Verifier: "v", RedirectURI: "http://x/cb"}))

	got, err := store.Consume(ctx, "st-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v", got.Verifier)

	again, err := store.Consume(ctx, "st-1")
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, store.Save(ctx, "st-2", &OAuthState{}))
	mr.FastForward(2 * time.Minute)
	expired, err := store.Consume(ctx, "st-2")
	require.NoError(t, err)
	assert.Nil(t, expired)
}
