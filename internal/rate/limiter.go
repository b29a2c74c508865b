package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the failed login budget. MaxFailures of zero disables the
// limiter.
type Config struct {
	Prefix      string
	MaxFailures int
	Cooldown    time.Duration
	PerIP       bool
}

// Limiter tracks failed login attempts per login name and, optionally, per
// client IP.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Enabled reports whether failures are counted at all.
func (l *Limiter) Enabled() bool {
	return l != nil && l.config.MaxFailures > 0
}

// Check returns how long login and ip stay blocked. Zero means the attempt
// may proceed.
func (l *Limiter) Check(ctx context.Context, login, ip string) (time.Duration, error) {
	if !l.Enabled() {
		return 0, nil
	}
	var wait time.Duration
	for _, key := range l.keys(login, ip) {
		w, err := l.blockedFor(ctx, key)
		if err != nil {
			return 0, err
		}
		if w > wait {
			wait = w
		}
	}
	return wait, nil
}

// Fail records a failed attempt and returns the block now in force, if any.
func (l *Limiter) Fail(ctx context.Context, login, ip string) (time.Duration, error) {
	if !l.Enabled() {
		return 0, nil
	}
	var wait time.Duration
	for _, key := range l.keys(login, ip) {
		count, err := l.incrementWithTTL(ctx, key)
		if err != nil {
			return 0, err
		}
		if count < int64(l.config.MaxFailures) {
			continue
		}
		w, err := l.ttl(ctx, key)
		if err != nil {
			return 0, err
		}
		if w > wait {
			wait = w
		}
	}
	return wait, nil
}

// Reset clears the login counter after a successful login. The IP counter
// is left alone so one valid account cannot launder failures from an IP.
func (l *Limiter) Reset(ctx context.Context, login string) error {
	if !l.Enabled() {
		return nil
	}
	if err := l.redis.Del(ctx, l.loginKey(login)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Failures returns the current failure count for login.
func (l *Limiter) Failures(ctx context.Context, login string) (int, error) {
	count, err := l.redis.Get(ctx, l.loginKey(login)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) keys(login, ip string) []string {
	keys := []string{l.loginKey(login)}
	if l.config.PerIP && ip != "" {
		keys = append(keys, l.config.Prefix+":lfi:"+ip)
	}
	return keys
}

func (l *Limiter) loginKey(login string) string {
	return l.config.Prefix + ":lf:" + strings.ToLower(strings.TrimSpace(login))
}

func (l *Limiter) blockedFor(ctx context.Context, key string) (time.Duration, error) {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < int64(l.config.MaxFailures) {
		return 0, nil
	}
	return l.ttl(ctx, key)
}

func (l *Limiter) ttl(ctx context.Context, key string) (time.Duration, error) {
	d, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// Missing or persistent keys report negative durations.
	if d < 0 {
		return l.config.Cooldown, nil
	}
	return d, nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
