package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter map between cleanups.
const maxTrackedClients = 10000

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address. It throttles the
// credential endpoints on top of the global request window.
type IPRateLimiter struct {
	ips    map[string]*clientLimiter
	mu     sync.Mutex
	r      rate.Limit
	b      int
	logger *slog.Logger
}

// NewIPRateLimiter allows perMinute attempts per client with the given burst.
func NewIPRateLimiter(perMinute int, burst int, logger *slog.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		ips:    make(map[string]*clientLimiter),
		r:      rate.Every(time.Minute / time.Duration(perMinute)),
		b:      burst,
		logger: logger,
	}
}

// StartCleanup evicts buckets idle for longer than idle every interval until
// ctx is done. The map is reset outright when it grows past maxTrackedClients.
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				i.cleanup(now, idle)
			}
		}
	}()
}

func (i *IPRateLimiter) cleanup(now time.Time, idle time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.ips) > maxTrackedClients {
		i.logger.Info("Resetting credential limiter map", "count", len(i.ips))
		i.ips = make(map[string]*clientLimiter)
		return
	}
	for ip, cl := range i.ips {
		if now.Sub(cl.lastSeen) > idle {
			delete(i.ips, ip)
		}
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	cl, exists := i.ips[ip]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = cl
	}
	cl.lastSeen = time.Now()

	return cl.limiter
}

// Allow consumes one token for ip.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}
