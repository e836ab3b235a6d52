package ingest

import (
	"context"
	"errors"
	"strings"

	"jobfeed/services/ingestion/internal/models"
	"jobfeed/services/ingestion/internal/store"

	"go.uber.org/zap"
)

type Outcome int

const (
	Saved Outcome = iota
	Duplicate
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case Duplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// ErrMissingTitle marks a listing that cannot be stored because it has no title.
var ErrMissingTitle = errors.New("job title is required")

// Writer persists jobs at most once per (title, location, company).
type Writer struct {
	store  store.JobStore
	logger *zap.Logger
}

func NewWriter(s store.JobStore, logger *zap.Logger) *Writer {
	return &Writer{store: s, logger: logger}
}

// Put looks the key up first and inserts only when absent. A conflict on
// insert means another writer won the race and is reported as Duplicate.
// Untitled jobs and store faults are logged and reported as Failed; they
// never propagate.
func (w *Writer) Put(ctx context.Context, job models.Job) (models.Job, Outcome) {
	if strings.TrimSpace(job.Title) == "" {
		w.logger.Error("error saving job",
			zap.String("title", job.Title),
			zap.String("location", job.Location),
			zap.Error(ErrMissingTitle))
		return job, Failed
	}

	existing, err := w.store.FindOne(ctx, job.Key())
	if err != nil {
		w.logger.Error("error saving job", zap.String("title", job.Title), zap.Error(err))
		return job, Failed
	}
	if existing != nil {
		w.logger.Info("skipped duplicate", zap.String("title", job.Title))
		return job, Duplicate
	}

	saved, err := w.store.Insert(ctx, job)
	if errors.Is(err, store.ErrDuplicate) {
		w.logger.Info("skipped duplicate", zap.String("title", job.Title))
		return job, Duplicate
	}
	if err != nil {
		w.logger.Error("error saving job", zap.String("title", job.Title), zap.Error(err))
		return job, Failed
	}

	w.logger.Info("saved job", zap.String("title", saved.Title), zap.String("id", saved.ID.String()))
	return saved, Saved
}

// Save reports whether job was newly persisted.
func (w *Writer) Save(ctx context.Context, job models.Job) bool {
	_, outcome := w.Put(ctx, job)
	return outcome == Saved
}
