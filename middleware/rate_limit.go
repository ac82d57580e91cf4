package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per client key.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*clientWindow
	rate    int           // requests per window
	window  time.Duration // time window
}

type clientWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*clientWindow),
		rate:    rate,
		window:  window,
	}
}

// Allow records one request for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.prune(now)
		w = &clientWindow{start: now}
		l.windows[key] = w
	}
	if w.count >= l.rate {
		return false
	}
	w.count++
	return true
}

// prune drops expired windows. Must be called with lock held
func (l *RateLimiter) prune(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
		}
	}
}

// RateLimit middleware limits requests per IP. A non-positive rate disables it.
func RateLimit(rate int, window time.Duration) gin.HandlerFunc {
	if rate <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRateLimiter(rate, window)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !limiter.Allow(clientIP, time.Now()) {
			slog.Warn("rate limit exceeded",
				"client_ip", clientIP,
				"request_id", GetRequestID(c),
			)
			abortWithError(c, http.StatusTooManyRequests, "Rate limit exceeded", "Please try again later.")
			return
		}

		c.Next()
	}
}
