package flock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"jobfeed/common/lock"

	"github.com/gofrs/flock"
)

// Locker serializes owners on one host with advisory file locks. A lease is
// dropped by the kernel when its process exits, so ttl is not needed.
type Locker struct {
	path string
}

func New(opts lock.Options) *Locker {
	return &Locker{path: opts.FilePath}
}

func (l *Locker) Acquire(ctx context.Context, key string, _ time.Duration) (lock.Release, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return nil, lock.ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fl := flock.New(l.path + "." + key)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, lock.ErrNotAcquired
	}

	var once sync.Once
	return func(context.Context) error {
		var uerr error
		once.Do(func() { uerr = fl.Unlock() })
		return uerr
	}, nil
}

func (l *Locker) Close() error {
	return nil
}
