package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

	ok, _ := rl.allowAt("1.1.1.1", now)
	assert.True(t, ok)
	ok, _ = rl.allowAt("1.1.1.1", now)
	assert.True(t, ok)
	ok, wait := rl.allowAt("1.1.1.1", now)
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = rl.allowAt("2.2.2.2", now)
	assert.True(t, ok, "buckets are per IP")

	ok, _ = rl.allowAt("1.1.1.1", now.Add(time.Second))
	assert.True(t, ok)
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	rl.allowAt("1.1.1.1", now)
	rl.allowAt("2.2.2.2", now.Add(visitorTTL+sweepInterval+time.Second))

	assert.Len(t, rl.visitors, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(0.001, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("X-Real-Ip", "9.9.9.9")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
