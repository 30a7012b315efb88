package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is the per-process token bucket used when Redis is absent.
// Keys idle for a full window are dropped; their bucket would be full again
// anyway, so a fresh limiter is equivalent.
type LocalLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter allows maxRequests per window per key.
func NewLocalLimiter(maxRequests int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Every(window / time.Duration(maxRequests)),
		burst:     maxRequests,
		window:    window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *LocalLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.window {
		l.evictIdle(now)
		l.lastSweep = now
	}
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// evictIdle must be called with mu held.
func (l *LocalLimiter) evictIdle(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.window {
			delete(l.limiters, key)
		}
	}
}

func (l *LocalLimiter) Allow(key string) bool {
	now := l.now()
	return l.getLimiter(key, now).AllowN(now, 1)
}

// Len reports the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// clientKey prefers the authenticated user over the remote address.
func clientKey(c *gin.Context) string {
	if userID, ok := UserID(c); ok {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}
