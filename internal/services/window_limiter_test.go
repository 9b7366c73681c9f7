package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemorySlidingWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("Blocks After Limit", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1700000000, 0)}
		limiter := NewMemorySlidingWindow(100, 15*time.Minute)
		limiter.now = clock.now

		for i := 0; i < 100; i++ {
			d, err := limiter.Allow(ctx, "1.2.3.4")
			require.NoError(t, err)
			require.True(t, d.Allowed, "request %d", i+1)
			assert.Equal(t, 99-i, d.Remaining)
			clock.advance(time.Second)
		}

		d, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.Equal(t, time.Unix(1700000000, 0).Add(15*time.Minute), d.ResetAt)

		other, _ := limiter.Allow(ctx, "5.6.7.8")
		assert.True(t, other.Allowed)
	})

	t.Run("Rejected Requests Do Not Count", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1700000000, 0)}
		limiter := NewMemorySlidingWindow(2, time.Minute)
		limiter.now = clock.now

		limiter.Allow(ctx, "k")
		limiter.Allow(ctx, "k")
		for i := 0; i < 5; i++ {
			d, _ := limiter.Allow(ctx, "k")
			assert.False(t, d.Allowed)
		}
		assert.Len(t, limiter.hits["k"], 2)
	})

	t.Run("Window Slides", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1700000000, 0)}
		limiter := NewMemorySlidingWindow(2, time.Minute)
		limiter.now = clock.now

		limiter.Allow(ctx, "k")
		clock.advance(30 * time.Second)
		limiter.Allow(ctx, "k")

		d, _ := limiter.Allow(ctx, "k")
		assert.False(t, d.Allowed)

		clock.advance(31 * time.Second)
		d, _ = limiter.Allow(ctx, "k")
		assert.True(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
	})

	t.Run("Cleanup Drops Expired Keys", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1700000000, 0)}
		limiter := NewMemorySlidingWindow(5, time.Minute)
		limiter.now = clock.now

		limiter.Allow(ctx, "old")
		clock.advance(2 * time.Minute)
		limiter.Allow(ctx, "fresh")
		limiter.cleanup()

		assert.NotContains(t, limiter.hits, "old")
		assert.Contains(t, limiter.hits, "fresh")
	})
}

func TestMemorySlidingWindow_Concurrent(t *testing.T) {
	limiter := NewMemorySlidingWindow(100, 15*time.Minute)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Allow(context.Background(), "203.0.113.7")
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), allowed.Load())
	assert.Len(t, limiter.hits["203.0.113.7"], 100)
}

func TestRedisSlidingWindow_FailOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       "localhost:1",
		MaxRetries: -1,
	})
	defer rdb.Close()

	limiter := NewRedisSlidingWindow(rdb, 100, 15*time.Minute, slog.Default())
	d, err := limiter.Allow(context.Background(), "1.2.3.4")

	assert.Error(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 100, d.Limit)
}
