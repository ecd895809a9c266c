package ratelimit

import (
	"context"
	"sync"
	"time"

	"glowme.io/internal/audit"
	"glowme.io/internal/obs"
)

var _ Limiter = (*Memory)(nil)

// Memory is the in-process limiter. State lives only in this replica and
// dies with it; across N replicas the effective threshold is N times the
// configured one. Acceptable as a stop-gap, not a production guarantee —
// use the Redis limiter when replicas share traffic.
type Memory struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string][]time.Time
}

// MemoryOption configures Memory.
type MemoryOption func(*Memory)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) MemoryOption {
	return func(m *Memory) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewMemory constructs the in-memory limiter.
func NewMemory(cfg Config, opts ...MemoryOption) *Memory {
	m := &Memory{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		buckets: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check implements Limiter.
func (m *Memory) Check(ctx context.Context, ip, email string) (int, bool) {
	if !m.cfg.Enabled {
		m.diagnostic(ctx, "disabled", "n/a", 0)
		return 0, false
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := [2]string{ipKey(ip), ipUserKey(ip, email)}
	types := [2]string{keyTypeIP, keyTypeIPUser}
	for i, key := range keys {
		bucket := m.evictLocked(key, now)
		if len(bucket) >= m.cfg.MaxFails {
			retry := retrySeconds(bucket[0], now, m.cfg.Window)
			obs.IncLoginRateLimited(types[i])
			m.diagnostic(ctx, "hit", types[i], len(bucket))
			return retry, true
		}
	}
	return 0, false
}

// RecordFailure implements Limiter.
func (m *Memory) RecordFailure(ctx context.Context, ip, email string) {
	if !m.cfg.Enabled {
		m.diagnostic(ctx, "disabled", "n/a", 0)
		return
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range [2]string{ipKey(ip), ipUserKey(ip, email)} {
		bucket := m.evictLocked(key, now)
		m.buckets[key] = append(bucket, now)
	}
	m.diagnostic(ctx, "recorded_fail", keyTypeIPUser, len(m.buckets[ipUserKey(ip, email)]))
}

// RecordSuccess implements Limiter.
func (m *Memory) RecordSuccess(ctx context.Context, ip, email string) {
	if !m.cfg.Enabled {
		m.diagnostic(ctx, "disabled", "n/a", 0)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := ipUserKey(ip, email)
	if _, ok := m.buckets[key]; ok {
		delete(m.buckets, key)
		m.diagnostic(ctx, "cleared_on_success", keyTypeIPUser, 0)
	}
}

// evictLocked drops timestamps older than the window and writes the pruned
// bucket back. Caller holds m.mu.
func (m *Memory) evictLocked(key string, now time.Time) []time.Time {
	bucket := m.buckets[key]
	cutoff := now.Add(-m.cfg.Window)
	idx := 0
	for idx < len(bucket) && !bucket[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		bucket = bucket[idx:]
		if len(bucket) == 0 {
			delete(m.buckets, key)
		} else {
			m.buckets[key] = bucket
		}
	}
	return bucket
}

// diagnostic emits the operator-facing event stream. Key material (IPs,
// emails) never appears here — only the key category and bucket depth.
func (m *Memory) diagnostic(ctx context.Context, event, keyType string, hits int) {
	_ = audit.LogEvent(ctx, "login_rate_limit", map[string]any{
		"event":      event,
		"key_type":   keyType,
		"window_sec": int(m.cfg.Window / time.Second),
		"max_fails":  m.cfg.MaxFails,
		"hits":       hits,
	})
}
