package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should be allowed", i+1)
	}

	// 6th request exceeds the burst
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_DifferentClients(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Another client still has its full burst
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.2"))
	}
}

func TestRateLimiter_Take_ReportsBucketState(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 4)
	defer rl.Stop()

	first := rl.Take("10.0.0.9")
	assert.True(t, first.Allowed)
	assert.Equal(t, 3, first.Remaining)
	assert.True(t, first.Reset.After(time.Now()))
	assert.Zero(t, first.RetryAfter)

	for i := 0; i < 3; i++ {
		rl.Take("10.0.0.9")
	}

	denied := rl.Take("10.0.0.9")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	// One token per second at 60/min
	assert.InDelta(t, time.Second.Seconds(), denied.RetryAfter.Seconds(), 0.1)
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	rl.evict(time.Now().Add(idleTTL + time.Minute))

	// A fresh bucket starts full again
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter()

	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestRateLimitMiddleware_BlocksAfterBurst(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 2)
	defer rl.Stop()

	handlerCalls := 0
	handler := RateLimitMiddleware(rl)(func(c echo.Context) error {
		handlerCalls++
		return c.String(http.StatusOK, "OK")
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/import", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		last = httptest.NewRecorder()
		assert.NoError(t, handler(e.NewContext(req, last)))
	}

	assert.Equal(t, 2, handlerCalls)
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "1", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_SetsHeadersOnSuccess(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(60, 5)
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/import", nil)
	rec := httptest.NewRecorder()
	assert.NoError(t, handler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
}
