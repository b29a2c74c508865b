package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return New(rdb, cfg), mr
}

func TestLimiterBlocksAfterMaxFailures(t *testing.T) {
	l, mr := newTestLimiter(t, Config{Prefix: "tfa", MaxFailures: 3, Cooldown: 15 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		wait, err := l.Fail(ctx, "Alice", "")
		if err != nil {
			t.Fatalf("Fail failed: %v", err)
		}
		if wait != 0 {
			t.Fatalf("attempt %d blocked early: %v", i+1, wait)
		}
	}
	wait, err := l.Fail(ctx, " alice ", "")
	if err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if wait != 15*time.Minute {
		t.Fatalf("expected full cooldown, got %v", wait)
	}

	mr.FastForward(5 * time.Minute)
	wait, err = l.Check(ctx, "ALICE", "")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if wait != 10*time.Minute {
		t.Fatalf("expected 10m left, got %v", wait)
	}

	mr.FastForward(10 * time.Minute)
	if wait, _ = l.Check(ctx, "alice", ""); wait != 0 {
		t.Fatalf("expected window to expire, got %v", wait)
	}
}

func TestLimiterPerIP(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Prefix: "tfa", MaxFailures: 2, Cooldown: time.Minute, PerIP: true})
	ctx := context.Background()

	if _, err := l.Fail(ctx, "alice", "198.51.100.7"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if _, err := l.Fail(ctx, "bob", "198.51.100.7"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	wait, err := l.Check(ctx, "carol", "198.51.100.7")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if wait <= 0 {
		t.Fatal("expected the ip to be blocked")
	}
	if wait, _ = l.Check(ctx, "carol", "198.51.100.8"); wait != 0 {
		t.Fatalf("other ips are unaffected, got %v", wait)
	}
}

func TestLimiterResetKeepsIPCounter(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Prefix: "tfa", MaxFailures: 1, Cooldown: time.Minute, PerIP: true})
	ctx := context.Background()

	if _, err := l.Fail(ctx, "alice", "198.51.100.7"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if err := l.Reset(ctx, "alice"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if n, _ := l.Failures(ctx, "alice"); n != 0 {
		t.Fatalf("expected login counter cleared, got %d", n)
	}
	if wait, _ := l.Check(ctx, "alice", "198.51.100.7"); wait <= 0 {
		t.Fatal("expected ip block to survive a reset")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l, _ := newTestLimiter(t, Config{Prefix: "tfa"})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if wait, err := l.Fail(ctx, "alice", ""); err != nil || wait != 0 {
			t.Fatalf("disabled limiter reported %v, %v", wait, err)
		}
	}
	if n, _ := l.Failures(ctx, "alice"); n != 0 {
		t.Fatalf("disabled limiter counted %d failures", n)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, Config{Prefix: "tfa", MaxFailures: 1, Cooldown: time.Minute})
	mr.Close()

	if _, err := l.Fail(context.Background(), "alice", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
