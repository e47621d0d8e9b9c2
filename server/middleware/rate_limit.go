package middleware

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-key rate limiting functionality.
type RateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter
	limit  rate.Limit
	burst  int
}

// NewRateLimiter creates a rate limiter allowing rps requests per second per
// key with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		limit:  rate.Limit(rps),
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Cleanup removes limiters idle long enough to be full again, bounding the
// map for long running processes. The keys are caller supplied thread
// identifiers, so the map grows with every distinct caller.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, limiter := range rl.limits {
		if limiter.Tokens() >= float64(rl.burst) {
			delete(rl.limits, key)
		}
	}
}

// Size returns the number of tracked keys.
func (rl *RateLimiter) Size() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limits)
}
