package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r *gin.Engine, ip string) int {
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_PerIP(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	r := newRouter(limiter.Middleware())

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2"), "other clients have their own bucket")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	limiter.limiterFor("10.0.0.1")
	limiter.Cleanup(time.Hour)
	assert.Len(t, limiter.visitors, 1)

	limiter.visitors["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Hour)
	limiter.Cleanup(time.Hour)
	assert.Empty(t, limiter.visitors)
}

func TestMetricsAndLoggerPassThrough(t *testing.T) {
	r := newRouter(RequestLogger(), Metrics())
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.3"))

	req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
