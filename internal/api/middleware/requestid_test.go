package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(string(RequestIDContextKey)))
	})

	t.Run("generates id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		r.ServeHTTP(w, req)

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagates client id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "trace-1")
		r.ServeHTTP(w, req)

		assert.Equal(t, "trace-1", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		r.ServeHTTP(w, req)

		_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
	})
}
