package flock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jobfeed/common/lock"
)

func newTestLocker(t *testing.T) *Locker {
	t.Helper()
	return New(lock.Options{FilePath: filepath.Join(t.TempDir(), "jobfeed.lock")})
}

func TestAcquireExcludesSecondOwner(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "ingest", time.Minute)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	if _, err := l.Acquire(ctx, "ingest", time.Minute); !errors.Is(err, lock.ErrNotAcquired) {
		t.Fatalf("second Acquire: got %v, want ErrNotAcquired", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("second release should be harmless: %v", err)
	}

	again, err := l.Acquire(ctx, "ingest", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = again(ctx)
}

func TestDistinctKeysDoNotConflict(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()

	a, err := l.Acquire(ctx, "ingest", 0)
	if err != nil {
		t.Fatalf("Acquire ingest: %v", err)
	}
	defer a(ctx)

	b, err := l.Acquire(ctx, "migrate", 0)
	if err != nil {
		t.Fatalf("Acquire migrate: %v", err)
	}
	defer b(ctx)
}

func TestAcquireRejectsPathKeys(t *testing.T) {
	l := newTestLocker(t)
	for _, key := range []string{"", "../escape", `a\b`} {
		if _, err := l.Acquire(context.Background(), key, 0); !errors.Is(err, lock.ErrInvalidKey) {
			t.Errorf("key %q: got %v, want ErrInvalidKey", key, err)
		}
	}
}
