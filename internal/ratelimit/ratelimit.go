package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding-window-log rate limiter keyed by voter fingerprint.
// Each fingerprint has a redis sorted set of attempt timestamps; one Lua
// script drops entries older than the window, denies at quota without
// mutating, otherwise appends and refreshes the key TTL. The script runs
// atomically in redis, so two concurrent attempts from one fingerprint cannot
// both pass the quota check.
//
// Fail-open: a nil client (redis unconfigured) or a redis error allows the
// request. Voting stays available when the optional counter store is absent;
// that is a documented trade-off, not a bug.
type Limiter struct {
	rdb    *redis.Client
	quota  int
	window time.Duration
	now    func() time.Time
}

// checkScript: KEYS[1] = counter key, ARGV = now_ms, window_ms, quota, member.
// Returns {allowed, remaining}.
var checkScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local quota = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= quota then
  return {0, 0}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, quota - count - 1}
`)

// New creates a limiter. rdb may be nil to disable rate limiting.
func New(rdb *redis.Client, quota int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, quota: quota, window: window, now: time.Now}
}

// CheckAndConsume admits or denies one vote attempt for the fingerprint.
// A denied attempt does not consume quota.
func (l *Limiter) CheckAndConsume(ctx context.Context, fingerprint string) (allowed bool, remaining int) {
	if l.rdb == nil {
		return true, l.quota
	}

	key := "ratelimit:" + fingerprint
	nowMS := l.now().UnixMilli()

	res, err := checkScript.Run(ctx, l.rdb, []string{key},
		nowMS, l.window.Milliseconds(), l.quota, uuid.NewString()).Int64Slice()
	if err != nil || len(res) != 2 {
		slog.Warn("rate limiter unavailable, failing open", "error", err)
		return true, l.quota
	}

	return res[0] == 1, int(res[1])
}

// SetClock overrides the limiter's clock. Test hook.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}
