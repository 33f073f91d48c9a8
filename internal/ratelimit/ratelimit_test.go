package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupLimiter(t *testing.T, quota int, window time.Duration) (*Limiter, *time.Time) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })

	limiter := New(rdb, quota, window)
	now := time.Now()
	limiter.SetClock(func() time.Time { return now })
	return limiter, &now
}

func TestLimiterQuota(t *testing.T) {
	limiter, _ := setupLimiter(t, 10, time.Hour)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		allowed, remaining := limiter.CheckAndConsume(ctx, "fp")
		if !allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		if want := 10 - i - 1; remaining != want {
			t.Errorf("attempt %d: expected %d remaining, got %d", i+1, want, remaining)
		}
	}

	if allowed, _ := limiter.CheckAndConsume(ctx, "fp"); allowed {
		t.Error("11th attempt should be denied")
	}
}

func TestLimiterDeniedAttemptDoesNotConsume(t *testing.T) {
	limiter, now := setupLimiter(t, 2, time.Hour)
	ctx := context.Background()

	limiter.CheckAndConsume(ctx, "fp")
	limiter.CheckAndConsume(ctx, "fp")

	// hammering past the quota must not extend the lockout
	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.CheckAndConsume(ctx, "fp"); allowed {
			t.Fatal("attempt past quota should be denied")
		}
	}

	// once the original attempts age out, the quota is back in full
	*now = now.Add(time.Hour + time.Second)
	if allowed, remaining := limiter.CheckAndConsume(ctx, "fp"); !allowed || remaining != 1 {
		t.Errorf("expected allowed with 1 remaining after window, got allowed=%v remaining=%d", allowed, remaining)
	}
}

func TestLimiterSlidingWindow(t *testing.T) {
	limiter, now := setupLimiter(t, 2, time.Hour)
	ctx := context.Background()

	limiter.CheckAndConsume(ctx, "fp")

	*now = now.Add(30 * time.Minute)
	limiter.CheckAndConsume(ctx, "fp")

	if allowed, _ := limiter.CheckAndConsume(ctx, "fp"); allowed {
		t.Fatal("expected denial at quota")
	}

	// 31 minutes later the first attempt has aged out but the second has not
	*now = now.Add(31 * time.Minute)
	if allowed, _ := limiter.CheckAndConsume(ctx, "fp"); !allowed {
		t.Error("expected first slot to free up")
	}
	if allowed, _ := limiter.CheckAndConsume(ctx, "fp"); allowed {
		t.Error("expected quota full again")
	}
}

func TestLimiterIsolatesFingerprints(t *testing.T) {
	limiter, _ := setupLimiter(t, 1, time.Hour)
	ctx := context.Background()

	if allowed, _ := limiter.CheckAndConsume(ctx, "fp-a"); !allowed {
		t.Fatal("first attempt for fp-a should pass")
	}
	if allowed, _ := limiter.CheckAndConsume(ctx, "fp-a"); allowed {
		t.Fatal("second attempt for fp-a should be denied")
	}
	if allowed, _ := limiter.CheckAndConsume(ctx, "fp-b"); !allowed {
		t.Error("fp-b has its own quota")
	}
}

func TestLimiterFailsOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("nil client", func(t *testing.T) {
		limiter := New(nil, 10, time.Hour)
		for i := 0; i < 20; i++ {
			if allowed, _ := limiter.CheckAndConsume(ctx, "fp"); !allowed {
				t.Fatal("nil-client limiter must always allow")
			}
		}
	})

	t.Run("dead server", func(t *testing.T) {
		srv := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
		defer rdb.Close()
		limiter := New(rdb, 10, time.Hour)
		srv.Close()

		if allowed, _ := limiter.CheckAndConsume(ctx, "fp"); !allowed {
			t.Error("limiter must fail open when redis is unreachable")
		}
	})
}
