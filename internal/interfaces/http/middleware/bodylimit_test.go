package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actdesk/backend/internal/interfaces/http/dto"
)

// limitedEngine echoes the body length, or 413 when reading hit the limit
func limitedEngine(limit int64) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), BodyLimit(limit))
	handler := func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.JSON(http.StatusOK, gin.H{"read": len(body)})
	}
	engine.POST("/api/v1/acts/totals", handler)
	engine.GET("/api/v1/acts/new", handler)
	return engine
}

func TestBodyLimit(t *testing.T) {
	record := `{"akta_nr":"PNA-1","pozīcijas":[]}`

	tests := []struct {
		name          string
		limit         int64
		method        string
		body          string
		contentLength int64
		wantStatus    int
	}{
		{"within limit", 1024, http.MethodPost, record, int64(len(record)), http.StatusOK},
		{"exactly at limit", int64(len(record)), http.MethodPost, record, int64(len(record)), http.StatusOK},
		{"declared length over limit", 16, http.MethodPost, record, int64(len(record)), http.StatusRequestEntityTooLarge},
		{"streamed body over limit", 16, http.MethodPost, record, -1, http.StatusRequestEntityTooLarge},
		{"zero limit disables the check", 0, http.MethodPost, strings.Repeat("x", 5000), 5000, http.StatusOK},
		{"no body", 10, http.MethodGet, "", 0, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/v1/acts/totals"
			if tt.method == http.MethodGet {
				path = "/api/v1/acts/new"
			}
			req := httptest.NewRequest(tt.method, path, strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			limitedEngine(tt.limit).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestBodyLimit_ErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/acts/totals", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set(RequestIDKey, "req-big")
	w := httptest.NewRecorder()
	limitedEngine(32).ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
	assert.Equal(t, "req-big", resp.Error.RequestID)
}
