package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"foodorder/internal/cache"
)

const loginFailuresKeyPrefix = "login_failures:"

// Throttle limits repeated failed logins per email.
type Throttle interface {
	Allowed(ctx context.Context, email string) bool
	RecordFailure(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

// LoginThrottle counts failures in Redis. When Redis is unavailable every attempt is allowed.
type LoginThrottle struct {
	cache       *cache.Client
	maxAttempts int
	lockout     time.Duration
}

var _ Throttle = (*LoginThrottle)(nil)

// NewLoginThrottle creates a throttle; maxAttempts <= 0 disables it.
func NewLoginThrottle(c *cache.Client, maxAttempts int, lockout time.Duration) *LoginThrottle {
	return &LoginThrottle{cache: c, maxAttempts: maxAttempts, lockout: lockout}
}

// Allowed reports whether another attempt may be made for email.
func (t *LoginThrottle) Allowed(ctx context.Context, email string) bool {
	if t.maxAttempts <= 0 {
		return true
	}
	data, _ := t.cache.Get(ctx, key(email))
	if data == nil {
		return true
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return true
	}
	return n < t.maxAttempts
}

// RecordFailure counts a failed attempt; the window starts at the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) {
	if t.maxAttempts <= 0 {
		return
	}
	t.cache.Incr(ctx, key(email), t.lockout)
}

// Reset clears the failure count after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) {
	_ = t.cache.Delete(ctx, key(email))
}

func key(email string) string {
	return loginFailuresKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}
