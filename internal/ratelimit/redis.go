package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"glowme.io/internal/audit"
	"glowme.io/internal/ids"
	"glowme.io/internal/obs"
)

var _ Limiter = (*Redis)(nil)

// Redis is the shared-store limiter for multi-replica deployments: every
// replica sees the same buckets, so the threshold no longer scales with
// replica count. Failure timestamps live in a sorted set per key, scored
// by unix milliseconds. Store errors fail open — an unreachable Redis must
// not lock out logins.
type Redis struct {
	cfg    Config
	client *redis.Client
	now    func() time.Time
}

// NewRedis constructs the Redis-backed limiter.
func NewRedis(cfg Config, client *redis.Client) *Redis {
	return &Redis{cfg: cfg.withDefaults(), client: client, now: time.Now}
}

// Check implements Limiter.
func (r *Redis) Check(ctx context.Context, ip, email string) (int, bool) {
	if !r.cfg.Enabled {
		r.diagnostic(ctx, "disabled", "n/a", 0)
		return 0, false
	}

	now := r.now()
	keys := [2]string{ipKey(ip), ipUserKey(ip, email)}
	types := [2]string{keyTypeIP, keyTypeIPUser}
	for i, key := range keys {
		count, oldest, err := r.pruneAndCount(ctx, key, now)
		if err != nil {
			r.diagnostic(ctx, "store_error", types[i], 0)
			return 0, false
		}
		if count >= int64(r.cfg.MaxFails) {
			retry := retrySeconds(oldest, now, r.cfg.Window)
			obs.IncLoginRateLimited(types[i])
			r.diagnostic(ctx, "hit", types[i], int(count))
			return retry, true
		}
	}
	return 0, false
}

// RecordFailure implements Limiter.
func (r *Redis) RecordFailure(ctx context.Context, ip, email string) {
	if !r.cfg.Enabled {
		r.diagnostic(ctx, "disabled", "n/a", 0)
		return
	}

	now := r.now()
	score := float64(now.UnixMilli())
	for _, key := range [2]string{ipKey(ip), ipUserKey(ip, email)} {
		pipe := r.client.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Add(-r.cfg.Window).UnixMilli(), 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: ids.New()})
		pipe.Expire(ctx, key, r.cfg.Window+time.Minute)
		if _, err := pipe.Exec(ctx); err != nil {
			r.diagnostic(ctx, "store_error", keyTypeIPUser, 0)
			return
		}
	}
	r.diagnostic(ctx, "recorded_fail", keyTypeIPUser, 0)
}

// RecordSuccess implements Limiter.
func (r *Redis) RecordSuccess(ctx context.Context, ip, email string) {
	if !r.cfg.Enabled {
		r.diagnostic(ctx, "disabled", "n/a", 0)
		return
	}
	if err := r.client.Del(ctx, ipUserKey(ip, email)).Err(); err != nil {
		r.diagnostic(ctx, "store_error", keyTypeIPUser, 0)
		return
	}
	r.diagnostic(ctx, "cleared_on_success", keyTypeIPUser, 0)
}

// pruneAndCount evicts expired entries, then returns the surviving count
// and the oldest surviving timestamp.
func (r *Redis) pruneAndCount(ctx context.Context, key string, now time.Time) (int64, time.Time, error) {
	cutoff := now.Add(-r.cfg.Window).UnixMilli()
	if err := r.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return 0, time.Time{}, err
	}
	count, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 0 {
		return 0, time.Time{}, nil
	}
	first, err := r.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	oldest := now
	if len(first) > 0 {
		oldest = time.UnixMilli(int64(first[0].Score))
	}
	return count, oldest, nil
}

func (r *Redis) diagnostic(ctx context.Context, event, keyType string, hits int) {
	_ = audit.LogEvent(ctx, "login_rate_limit", map[string]any{
		"event":      event,
		"key_type":   keyType,
		"window_sec": int(r.cfg.Window / time.Second),
		"max_fails":  r.cfg.MaxFails,
		"hits":       hits,
	})
}
