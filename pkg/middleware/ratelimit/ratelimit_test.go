package ratelimit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterThrottlesPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := New(2, time.Hour)
	router := gin.New()
	router.GET("/pdf", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/pdf", nil)
		req.RemoteAddr = ip + ":40000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	limited := do("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, limited.Body.String())

	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}

func TestLimiterIgnoresRotatingForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := New(2, time.Minute)
	router := gin.New()
	router.GET("/pdf", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/pdf", nil)
		req.RemoteAddr = "203.0.113.7:51000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		} else {
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}

	assert.Equal(t, 2, allowed)
	assert.Equal(t, 1, limiter.Sweep())
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	limiter := New(0, time.Minute)
	require.Nil(t, limiter)
	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"))
	}
}

func TestSweepDropsIdleClients(t *testing.T) {
	limiter := New(5, time.Minute)
	now := time.Now()
	limiter.now = func() time.Time { return now }
	limiter.Allow("10.0.0.1")

	now = now.Add(time.Minute)
	limiter.Allow("10.0.0.2")
	assert.Equal(t, 2, limiter.Sweep())

	now = now.Add(idleTimeout - 30*time.Second)
	assert.Equal(t, 1, limiter.Sweep())
}
