package lock

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotAcquired = errors.New("lock is held by another owner")
	ErrInvalidKey  = errors.New("invalid lock key")
)

// Release gives up a lease obtained from Acquire. Calling it more than once is
// harmless.
type Release func(ctx context.Context) error

type Locker interface {
	// Acquire takes the named lease without blocking. It returns
	// ErrNotAcquired when another owner holds it. The ttl bounds how long a
	// crashed owner can keep it; backends without expiry ignore it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)

	Close() error
}

type Options struct {
	DefaultTTL time.Duration

	RedisURL string

	RedisPassword string

	RedisDB int

	// Path prefix for host-local lock files.
	FilePath string
}

func DefaultOptions() Options {
	return Options{
		DefaultTTL: time.Hour,
	}
}
