package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "test:sess:", time.Hour)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

type record struct {
	Type    string `json:"type"`
	Expires int64  `json:"expires"`
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	in := map[string]record{"t1": {Type: "5", Expires: 42}}
	if err := store.Set(ctx, "sid-1", "tokens", in); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out map[string]record
	ok, err := store.Get(ctx, "sid-1", "tokens", &out)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if out["t1"].Type != "5" || out["t1"].Expires != 42 {
		t.Fatalf("unexpected record %+v", out["t1"])
	}
}

func TestRedisStoreIsolatesSessions(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "sid-1", "k", record{Type: "v"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var v record
	ok, err := store.Get(ctx, "sid-2", "k", &v)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Fatal("expected key to be invisible from another session")
	}
}

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "sid-1", "k", record{Type: "v"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Delete(ctx, "sid-1", "k"); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "sid-1", "k"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	var v record
	ok, err := store.Get(ctx, "sid-1", "k", &v)
	if err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreLifetimeExpires(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "sid-1", "k", record{Type: "v"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	var v record
	ok, err := store.Get(ctx, "sid-1", "k", &v)
	if err != nil || ok {
		t.Fatalf("expected expired key, ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreRequiresSessionID(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()

	if err := store.Set(context.Background(), "", "k", record{Type: "v"}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestContextCarriesSessionID(t *testing.T) {
	ctx := WithID(context.Background(), "sid-9")
	if got := IDFromContext(ctx); got != "sid-9" {
		t.Fatalf("IDFromContext = %q", got)
	}
	if got := IDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
