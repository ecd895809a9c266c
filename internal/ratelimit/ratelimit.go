// Package ratelimit throttles failed login attempts in a sliding time
// window. Two independent counters guard every attempt: one per client IP
// and one per (IP, account) pair, so a credential-stuffing run from a
// shared office NAT trips the IP bucket even while individual accounts
// stay under their own threshold.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Config carries the limiter knobs. Injected at construction so tests can
// exercise both flag states without touching the environment.
type Config struct {
	Enabled  bool
	MaxFails int
	Window   time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxFails <= 0 {
		c.MaxFails = 5
	}
	if c.Window <= 0 {
		c.Window = 60 * time.Second
	}
	return c
}

// Limiter is the call-site contract. Implementations are best-effort: a
// limiter that loses state (restart, store outage) fails open rather than
// locking users out.
type Limiter interface {
	// Check reports whether this attempt is blocked and, if so, for how
	// many seconds (the Retry-After value, minimum 1). It never mutates
	// counters beyond lazy eviction.
	Check(ctx context.Context, ip, email string) (retryAfter int, limited bool)

	// RecordFailure appends the current moment to both buckets. Failures
	// count even while the limiter is already tripped.
	RecordFailure(ctx context.Context, ip, email string)

	// RecordSuccess clears only the (IP, account) bucket. The shared IP
	// bucket stays intact so one tenant's successful login does not reset
	// protection for the rest of a shared address.
	RecordSuccess(ctx context.Context, ip, email string)
}

const (
	keyTypeIP     = "ip"
	keyTypeIPUser = "ipuser"
)

func ipKey(ip string) string {
	return "ip::" + ip
}

func ipUserKey(ip, email string) string {
	return "ipuser::" + ip + "::" + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// retrySeconds converts the time until the oldest surviving failure leaves
// the window into a Retry-After value, rounding up and clamping at 1.
func retrySeconds(oldest, now time.Time, window time.Duration) int {
	remaining := oldest.Add(window).Sub(now)
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
