package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	rediskitcache "github.com/soulteary/redis-kit/cache"
	secure "github.com/soulteary/secure-kit"
)

// ErrRedisUnavailable is returned when the session backend cannot be reached.
var ErrRedisUnavailable = errors.New("session backend unavailable")

// ErrNoSession is returned when an operation needs a session id and none was given.
var ErrNoSession = errors.New("no session")

const (
	defaultPrefix   = "tfa:sess:"
	defaultLifetime = 24 * time.Hour
)

// Store is session-scoped key/value storage. Values are serialized as JSON.
type Store interface {
	// Get loads key into dest and reports whether the key was present.
	Get(ctx context.Context, sessionID, key string, dest any) (bool, error)
	Set(ctx context.Context, sessionID, key string, value any) error
	Delete(ctx context.Context, sessionID, key string) error
}

// RedisStore keeps session entries in Redis. Every write refreshes the
// entry lifetime so an active session keeps its data.
type RedisStore struct {
	cache    rediskitcache.Cache
	lifetime time.Duration
}

// NewRedisStore creates a [RedisStore]. Empty prefix and non-positive
// lifetime fall back to "tfa:sess:" and 24h.
func NewRedisStore(client *redis.Client, prefix string, lifetime time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	return &RedisStore{
		cache:    rediskitcache.NewCache(client, prefix),
		lifetime: lifetime,
	}
}

func (s *RedisStore) key(sessionID, key string) string {
	return sessionID + ":" + key
}

// Get implements [Store].
func (s *RedisStore) Get(ctx context.Context, sessionID, key string, dest any) (bool, error) {
	if sessionID == "" {
		return false, ErrNoSession
	}
	k := s.key(sessionID, key)

	exists, err := s.cache.Exists(ctx, k)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !exists {
		return false, nil
	}

	if err := s.cache.Get(ctx, k, dest); err != nil {
		// Expired between EXISTS and GET.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return true, nil
}

// Set implements [Store].
func (s *RedisStore) Set(ctx context.Context, sessionID, key string, value any) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if err := s.cache.Set(ctx, s.key(sessionID, key), value, s.lifetime); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete implements [Store]. Deleting a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID, key string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if err := s.cache.Del(ctx, s.key(sessionID, key)); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// NewID returns a fresh opaque session identifier.
func NewID() (string, error) {
	return secure.RandomToken(16)
}

type idContextKey struct{}

// WithID attaches a session id to ctx.
func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, idContextKey{}, sessionID)
}

// IDFromContext returns the session id attached by [WithID].
func IDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(idContextKey{}).(string)
	return id
}
