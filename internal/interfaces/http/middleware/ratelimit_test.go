package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actdesk/backend/internal/interfaces/http/dto"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, limit int, period time.Duration) (*MemoryLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := newMemoryLimiter(limit, period, clock.Now)
	t.Cleanup(l.Stop)
	return l, clock
}

func take(t *testing.T, l Limiter, key string) Quota {
	t.Helper()
	q, err := l.Take(context.Background(), key)
	require.NoError(t, err)
	return q
}

func TestMemoryLimiter(t *testing.T) {
	t.Run("blocks requests over the limit per key", func(t *testing.T) {
		l, _ := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			q := take(t, l, "client")
			assert.True(t, q.Allowed, "request %d", i+1)
			assert.Equal(t, 2-i, q.Remaining)
		}
		q := take(t, l, "client")
		assert.False(t, q.Allowed)
		assert.Zero(t, q.Remaining)
		assert.Equal(t, 3, q.Limit)
		assert.True(t, take(t, l, "other").Allowed)
	})

	t.Run("window starts over", func(t *testing.T) {
		l, clock := newTestLimiter(t, 1, time.Minute)

		assert.True(t, take(t, l, "client").Allowed)
		clock.Advance(20 * time.Second)
		q := take(t, l, "client")
		assert.False(t, q.Allowed)
		assert.Equal(t, 40*time.Second, q.ResetIn)

		clock.Advance(40 * time.Second)
		assert.True(t, take(t, l, "client").Allowed)
	})

	t.Run("idle clients are forgotten", func(t *testing.T) {
		l, clock := newTestLimiter(t, 1, time.Minute)
		take(t, l, "idle")
		clock.Advance(3 * time.Minute)
		l.forgetIdle()

		l.mu.Lock()
		defer l.mu.Unlock()
		assert.Empty(t, l.windows)
	})

	t.Run("concurrent takes never exceed the limit", func(t *testing.T) {
		l, _ := newTestLimiter(t, 100, time.Minute)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q, _ := l.Take(context.Background(), "concurrent")
				if q.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, allowed)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		l := NewMemoryLimiter(1, time.Minute)
		l.Stop()
		l.Stop()
	})
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
	assert.Equal(t, 2, retryAfterSeconds(1100*time.Millisecond))
	assert.Equal(t, 1, retryAfterSeconds(0))
}

func TestRateLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 2, time.Minute)
	router := gin.New()
	router.Use(RateLimit(l))
	router.POST("/acts/render", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/acts/render", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Empty(t, w.Header().Get("Retry-After"))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/acts/render", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeRateLimited)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

type brokenLimiter struct{}

func (brokenLimiter) Take(context.Context, string) (Quota, error) {
	return Quota{}, errors.New("connection refused")
}

func TestRateLimitByKey(t *testing.T) {
	send := func(router *gin.Engine, clientKey string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Client", clientKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	byHeader := func(c *gin.Context) string { return c.GetHeader("X-Client") }

	t.Run("uses custom key function", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1, time.Minute)
		router := gin.New()
		router.Use(RateLimitByKey(l, byHeader))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		assert.Equal(t, http.StatusOK, send(router, "a").Code)
		assert.Equal(t, http.StatusTooManyRequests, send(router, "a").Code)
		assert.Equal(t, http.StatusOK, send(router, "b").Code)
	})

	t.Run("nil limiter passes through", func(t *testing.T) {
		router := gin.New()
		router.Use(RateLimitByKey(nil, byHeader))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, send(router, "a").Code)
		}
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		var errs []string
		router := gin.New()
		router.Use(RateLimitByKey(brokenLimiter{}, byHeader))
		router.GET("/test", func(c *gin.Context) {
			errs = c.Errors.Errors()
			c.String(http.StatusOK, "ok")
		})

		w := send(router, "a")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, []string{"connection refused"}, errs)
	})
}

func TestRedisLimiter_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("set INTEGRATION_TEST=1 with a local Redis to run")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	ctx := context.Background()
	key := "test:" + t.Name()
	require.NoError(t, client.Del(ctx, "actdesk:ratelimit:"+key).Err())

	l := NewRedisLimiter(client, "", 2, time.Minute)
	assert.True(t, take(t, l, key).Allowed)
	q := take(t, l, key)
	assert.True(t, q.Allowed)
	assert.Zero(t, q.Remaining)
	assert.Greater(t, q.ResetIn, 50*time.Second)

	q = take(t, l, key)
	assert.False(t, q.Allowed)
	assert.Equal(t, 2, q.Limit)
}
