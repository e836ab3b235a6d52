package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"jobfeed/common/database"
	"jobfeed/services/ingestion/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDuplicate is returned by Insert when a job with the same dedup key
// already exists. It is the authoritative duplicate signal; FindOne is only a
// shortcut.
var ErrDuplicate = errors.New("job with the same title, location and company already exists")

// JobStore is the persistence collaborator for ingested jobs. Implementations
// enforce uniqueness of (title, location, company).
type JobStore interface {
	// FindOne returns the job stored under key, or nil when none exists.
	FindOne(ctx context.Context, key models.Key) (*models.Job, error)

	// Insert persists job, assigning ID and CreatedAt when unset.
	Insert(ctx context.Context, job models.Job) (models.Job, error)

	Close() error
}

// Open picks a backend from the DSN scheme: postgres:// and postgresql:// use
// PostgreSQL, sqlite:// and file: use embedded SQLite.
func Open(ctx context.Context, opts database.Options, logger *zap.Logger) (JobStore, error) {
	dsn := opts.DSN
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pool, err := database.NewPostgresPool(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, pool)
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		return NewSQLiteStore(ctx, dsn)
	default:
		return nil, errors.New("unsupported DATABASE_URL scheme; want postgres://, sqlite:// or file:")
	}
}

// withDefaults fills the bookkeeping fields assigned at insert time.
func withDefaults(job models.Job) models.Job {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Requirements == nil {
		job.Requirements = []string{}
	}
	if job.Applications == nil {
		job.Applications = []uuid.UUID{}
	}
	return job
}
