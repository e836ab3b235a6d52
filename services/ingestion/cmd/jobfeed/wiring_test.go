package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobfeed/common/lock/flock"
	"jobfeed/common/lock/redis"
	"jobfeed/services/ingestion/internal/config"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func lockConfig(t *testing.T, redisAddr string) *config.Config {
	t.Helper()
	return &config.Config{
		LockFile:  filepath.Join(t.TempDir(), "jobfeed.lock"),
		LockTTL:   time.Minute,
		RedisAddr: redisAddr,
	}
}

func TestNewLockerUsesFileLockWithoutRedis(t *testing.T) {
	locker := newLocker(context.Background(), lockConfig(t, ""), zap.NewNop())
	defer locker.Close()

	if _, ok := locker.(*flock.Locker); !ok {
		t.Fatalf("locker = %T, want *flock.Locker", locker)
	}
}

func TestNewLockerUsesRedisWhenReachable(t *testing.T) {
	mr := miniredis.RunT(t)

	locker := newLocker(context.Background(), lockConfig(t, mr.Addr()), zap.NewNop())
	defer locker.Close()

	if _, ok := locker.(*redis.Locker); !ok {
		t.Fatalf("locker = %T, want *redis.Locker", locker)
	}
}

func TestNewLockerFallsBackToFileLockWhenRedisIsDown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := lockConfig(t, "127.0.0.1:1")
	locker := newLocker(ctx, cfg, zap.New(core))
	defer locker.Close()

	if _, ok := locker.(*flock.Locker); !ok {
		t.Fatalf("locker = %T, want *flock.Locker", locker)
	}
	warned := logs.FilterMessage("redis unavailable, falling back to file lock").All()
	if len(warned) != 1 || warned[0].Level != zapcore.WarnLevel {
		t.Fatalf("fallback warning not logged: %v", logs.All())
	}

	release, err := locker.Acquire(ctx, "ingest", time.Minute)
	if err != nil {
		t.Fatalf("Acquire on fallback lock: %v", err)
	}
	_ = release(ctx)
}
