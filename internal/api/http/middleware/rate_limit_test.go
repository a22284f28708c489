package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestClientRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/debug", ClientRateLimit(rate.Limit(0.001), 2), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	do := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/debug", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Burst of 2, then the bucket is empty.
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestClientRateLimitKeysByClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/debug", ClientRateLimit(rate.Limit(0.001), 1), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	do := func(addr string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/debug", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:50000"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:50000"))

	// A different client has its own bucket.
	assert.Equal(t, http.StatusOK, do("10.0.0.2:50000"))
}
