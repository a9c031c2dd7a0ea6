package httpmiddleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"schoolportal/internal/metrics"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit returns a gin handler enforcing per-IP limits. Limiter errors
// fail open so an unavailable backend does not lock users out.
func RateLimit(l Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			ok = true
		}
		if !ok {
			metrics.RateLimitedTotal.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

// TokenBucket is an in-memory per-key limiter for single-instance deployments.
// Buckets idle long enough to refill completely are dropped, since a fresh
// bucket behaves the same.
type TokenBucket struct {
	capacity  int
	perToken  time.Duration
	now       func() time.Time
	mu        sync.Mutex
	state     map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates limiter with capacity tokens and rate per minute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	if capacity <= 0 {
		capacity = 1
	}
	if perMinute <= 0 {
		perMinute = 1
	}
	return &TokenBucket{
		capacity: capacity,
		perToken: time.Minute / time.Duration(perMinute),
		now:      time.Now,
		state:    make(map[string]*bucket),
	}
}

// fullAfter is how long an empty bucket takes to refill.
func (l *TokenBucket) fullAfter() time.Duration {
	return time.Duration(l.capacity) * l.perToken
}

// Allow takes one token for key if available.
func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)

	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true, nil
	}
	if elapsed := now.Sub(b.last); elapsed > 0 {
		refill := int(elapsed / l.perToken)
		b.tokens += refill
		if b.tokens >= l.capacity {
			b.tokens = l.capacity
			b.last = now
		} else {
			// keep the unspent remainder for the next call
			b.last = b.last.Add(time.Duration(refill) * l.perToken)
		}
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// sweep drops buckets that would be full by now. It runs at most once per
// refill period.
func (l *TokenBucket) sweep(now time.Time) {
	full := l.fullAfter()
	if now.Sub(l.lastSweep) < full {
		return
	}
	l.lastSweep = now
	for key, b := range l.state {
		if now.Sub(b.last) >= full {
			delete(l.state, key)
		}
	}
}

// RedisWindow is a fixed one-minute window limiter shared across instances.
type RedisWindow struct {
	client    *redis.Client
	perMinute int
	prefix    string
	now       func() time.Time
}

// NewRedisWindow creates a limiter allowing perMinute requests per key.
func NewRedisWindow(client *redis.Client, perMinute int) *RedisWindow {
	return &RedisWindow{client: client, perMinute: perMinute, prefix: "school:ratelimit", now: time.Now}
}

// Allow counts the request in the current minute's window.
func (l *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, l.now().Unix()/60)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.perMinute), nil
}
