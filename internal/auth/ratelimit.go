package auth

import (
	"context"
	"time"

	"github.com/riskshield/fraudguard/internal/kv"
)

// RateLimiter throttles login attempts per client IP, adapted from the
// teacher's Redis INCR+EXPIRE login limiter onto the kv.Client abstraction
// so it degrades the same way the rest of the token subsystem does when the
// KV store is unavailable.
type RateLimiter struct {
	kv         kv.Client
	maxAttempt int
	window     time.Duration
}

// NewRateLimiter builds a limiter allowing maxAttempt failed logins per IP
// within window.
func NewRateLimiter(kvClient kv.Client, maxAttempt int, window time.Duration) *RateLimiter {
	return &RateLimiter{kv: kvClient, maxAttempt: maxAttempt, window: window}
}

func rateLimitKey(ip string) string { return "login_ratelimit:" + ip }

// Allowed reports whether ip may attempt another login. A KV error fails
// open — rate limiting is an availability safeguard, not a security
// boundary, so its own unavailability must not block logins.
func (rl *RateLimiter) Allowed(ctx context.Context, ip string) (bool, error) {
	val, err := rl.kv.Get(ctx, rateLimitKey(ip))
	if err == kv.ErrNotFound {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	count := 0
	for _, c := range val {
		if c < '0' || c > '9' {
			return true, nil
		}
		count = count*10 + int(c-'0')
	}
	return count < rl.maxAttempt, nil
}

// RecordFailure counts a failed login attempt against ip.
func (rl *RateLimiter) RecordFailure(ctx context.Context, ip string) error {
	_, err := rl.kv.Incr(ctx, rateLimitKey(ip), rl.window)
	return err
}

// Reset clears the counter for ip, called on a successful login.
func (rl *RateLimiter) Reset(ctx context.Context, ip string) error {
	return rl.kv.Del(ctx, rateLimitKey(ip))
}
