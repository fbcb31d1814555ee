package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/actdesk/backend/internal/interfaces/http/dto"
)

// Quota is the outcome of taking one request from a client's window
type Quota struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time until the window starts over
	ResetIn time.Duration
}

// Limiter counts requests per key in fixed windows. The render, preview and
// export routes use one since each call starts a renderer and possibly a
// rasterizer process.
type Limiter interface {
	Take(ctx context.Context, key string) (Quota, error)
}

// MemoryLimiter keeps windows in process memory
type MemoryLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	period   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count int
	start time.Time
}

// NewMemoryLimiter allows limit requests per period and key. Stop ends the
// goroutine that forgets idle clients.
func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	return newMemoryLimiter(limit, period, time.Now)
}

func newMemoryLimiter(limit int, period time.Duration, now func() time.Time) *MemoryLimiter {
	l := &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     now,
		stop:    make(chan struct{}),
	}
	go l.sweep(2 * period)
	return l
}

// Stop ends the sweeper
func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *MemoryLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.forgetIdle()
		}
	}
}

func (l *MemoryLimiter) forgetIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, w := range l.windows {
		if now.Sub(w.start) > 2*l.period {
			delete(l.windows, key)
		}
	}
}

// Take implements Limiter
func (l *MemoryLimiter) Take(_ context.Context, key string) (Quota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.windows[key] = w
	}
	resetIn := l.period - now.Sub(w.start)
	if w.count >= l.limit {
		return Quota{Limit: l.limit, ResetIn: resetIn}, nil
	}
	w.count++
	return Quota{Allowed: true, Limit: l.limit, Remaining: l.limit - w.count, ResetIn: resetIn}, nil
}

// fixedWindowScript increments the counter, starts the window on the first
// hit and returns the count with the milliseconds left
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter shares windows between server instances through Redis
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	limit  int
	period time.Duration
}

// NewRedisLimiter allows limit requests per period and key. Keys are stored
// under prefix.
func NewRedisLimiter(client redis.Scripter, prefix string, limit int, period time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "actdesk:ratelimit:"
	}
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, period: period}
}

// Take implements Limiter
func (l *RedisLimiter) Take(ctx context.Context, key string) (Quota, error) {
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.period.Milliseconds()).Int64Slice()
	if err != nil {
		return Quota{}, fmt.Errorf("rate limit: %w", err)
	}
	if len(res) != 2 {
		return Quota{}, fmt.Errorf("rate limit: unexpected reply %v", res)
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = l.period
	}
	return Quota{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-count, 0),
		ResetIn:   ttl,
	}, nil
}

// RateLimit limits requests per client IP
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key returned by keyFunc. A nil limiter
// lets every request through, and so does a limiter error: the error is
// attached to the context for the access log.
func RateLimitByKey(limiter Limiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		q, err := limiter.Take(c.Request.Context(), keyFunc(c))
		if err != nil {
			_ = c.Error(err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(q.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
		if !q.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(q.ResetIn)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				RequestIDOf(c),
			))
			return
		}
		c.Next()
	}
}

// retryAfterSeconds rounds up so clients never retry inside the window
func retryAfterSeconds(d time.Duration) int {
	return max(int((d+time.Second-1)/time.Second), 1)
}

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)
