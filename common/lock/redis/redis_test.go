package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobfeed/common/lock"

	"github.com/alicebob/miniredis/v2"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	l := New(lock.Options{RedisURL: mr.Addr(), DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = l.Close() })
	if err := l.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	return l, mr
}

func TestAcquireRejectsEmptyKey(t *testing.T) {
	l, _ := newTestLocker(t)

	if _, err := l.Acquire(context.Background(), "", time.Second); !errors.Is(err, lock.ErrInvalidKey) {
		t.Fatalf("err = %v, want ErrInvalidKey", err)
	}
}

func TestAcquireSetsPrefixedKeyWithTTL(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "ingest", 30*time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !mr.Exists("jobfeed:lock:ingest") {
		t.Fatal("lease key not written")
	}
	if ttl := mr.TTL("jobfeed:lock:ingest"); ttl != 30*time.Second {
		t.Fatalf("TTL = %v, want 30s", ttl)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("jobfeed:lock:ingest") {
		t.Fatal("lease key still present after release")
	}
}

func TestAcquireFallsBackToDefaultTTL(t *testing.T) {
	l, mr := newTestLocker(t)

	if _, err := l.Acquire(context.Background(), "ingest", 0); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if ttl := mr.TTL("jobfeed:lock:ingest"); ttl != time.Minute {
		t.Fatalf("TTL = %v, want 1m", ttl)
	}
}

func TestAcquireIsExclusiveUntilReleased(t *testing.T) {
	l, _ := newTestLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "ingest", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := l.Acquire(ctx, "ingest", time.Minute); !errors.Is(err, lock.ErrNotAcquired) {
		t.Fatalf("second Acquire = %v, want ErrNotAcquired", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}

	again, err := l.Acquire(ctx, "ingest", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = again(ctx)
}

func TestExpiredLeaseCannotReleaseSuccessor(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "ingest", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)

	current, err := l.Acquire(ctx, "ingest", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after expiry: %v", err)
	}
	defer current(ctx)

	if err := stale(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if _, err := l.Acquire(ctx, "ingest", time.Minute); !errors.Is(err, lock.ErrNotAcquired) {
		t.Fatalf("stale release freed the successor's lease: %v", err)
	}
}

func TestPingFailsWhenServerIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	l := New(lock.Options{RedisURL: mr.Addr()})
	defer l.Close()
	mr.Close()

	if err := l.Ping(context.Background()); err == nil {
		t.Fatal("Ping succeeded against a stopped server")
	}
}
