package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// WindowLimiter admits at most a fixed number of requests per key inside a
// sliding window. Only admitted requests count against the window.
type WindowLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemorySlidingWindow keeps a log of admission times per key in process memory.
type MemorySlidingWindow struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewMemorySlidingWindow(limit int, window time.Duration) *MemorySlidingWindow {
	return &MemorySlidingWindow{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (m *MemorySlidingWindow) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	hits := prune(m.hits[key], now.Add(-m.window))

	d := Decision{Limit: m.limit}
	if len(hits) >= m.limit {
		d.ResetAt = hits[0].Add(m.window)
		m.hits[key] = hits
		return d, nil
	}

	hits = append(hits, now)
	m.hits[key] = hits
	d.Allowed = true
	d.Remaining = m.limit - len(hits)
	d.ResetAt = hits[0].Add(m.window)
	return d, nil
}

// StartCleanup drops keys whose window has fully elapsed, every interval
// until ctx is done.
func (m *MemorySlidingWindow) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.cleanup()
			}
		}
	}()
}

func (m *MemorySlidingWindow) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.window)
	for key, hits := range m.hits {
		if hits = prune(hits, cutoff); len(hits) == 0 {
			delete(m.hits, key)
		} else {
			m.hits[key] = hits
		}
	}
}

// prune drops entries at or before cutoff. hits is sorted ascending.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// slidingWindowScript trims the sorted set to the window, then records the
// request only when the key is under its limit. Returns {allowed, count, oldest_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// RedisSlidingWindow shares the window across processes through a sorted set
// per key. Redis failures admit the request.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewRedisSlidingWindow(rdb *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RedisSlidingWindow {
	return &RedisSlidingWindow{
		rdb:    rdb,
		prefix: "favlinks:ratelimit:",
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

func (r *RedisSlidingWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	nowMs := now.UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, r.rdb, []string{r.prefix + key},
		nowMs, r.window.Milliseconds(), r.limit, member).Int64Slice()
	if err != nil {
		r.logger.Warn("Rate limit store unavailable, admitting request", "error", err)
		return Decision{
			Allowed:   true,
			Limit:     r.limit,
			Remaining: r.limit,
			ResetAt:   now.Add(r.window),
		}, fmt.Errorf("sliding window: %w", err)
	}

	d := Decision{
		Allowed: res[0] == 1,
		Limit:   r.limit,
		ResetAt: time.UnixMilli(res[2]).Add(r.window),
	}
	if d.Allowed {
		d.Remaining = r.limit - int(res[1])
	}
	return d, nil
}
