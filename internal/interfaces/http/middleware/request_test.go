package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/api/v1/acts/new", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDContextKey))
	})

	t.Run("assigns an ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/acts/new", nil))

		id := w.Header().Get(RequestIDKey)
		assert.Regexp(t, `^[0-9a-f]{32}$`, id)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the caller's ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/acts/new", nil)
		req.Header.Set(RequestIDKey, "editor-42")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "editor-42", w.Header().Get(RequestIDKey))
		assert.Equal(t, "editor-42", w.Body.String())
	})
}

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := generateRequestID()
		assert.Len(t, id, 32)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestTimeout(t *testing.T) {
	deadlineOf := func(timeout time.Duration) (time.Time, bool, *httptest.ResponseRecorder) {
		engine := gin.New()
		engine.Use(Timeout(timeout))
		var deadline time.Time
		var ok bool
		engine.POST("/api/v1/acts/render", func(c *gin.Context) {
			deadline, ok = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/acts/render", nil))
		return deadline, ok, w
	}

	t.Run("bounds the request context", func(t *testing.T) {
		deadline, ok, w := deadlineOf(30 * time.Second)

		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(30*time.Second), deadline, time.Second)
		assert.Equal(t, "30s", w.Header().Get("X-Request-Timeout"))
	})

	t.Run("zero leaves the context alone", func(t *testing.T) {
		_, ok, w := deadlineOf(0)

		assert.False(t, ok)
		assert.Empty(t, w.Header().Get("X-Request-Timeout"))
	})
}
