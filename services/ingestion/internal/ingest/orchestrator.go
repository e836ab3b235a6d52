package ingest

import (
	"context"
	"time"

	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/models"
	"jobfeed/services/ingestion/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = telemetry.GetTracer("jobfeed/ingestion/ingest")

const defaultProviderTimeout = 30 * time.Second

// Publisher announces newly persisted jobs.
type Publisher interface {
	PublishJobIngested(ctx context.Context, job models.Job) error
}

// RunRecorder keeps a history of cycles.
type RunRecorder interface {
	Record(ctx context.Context, summary RunSummary) error
}

type Options struct {
	ProviderTimeout time.Duration
	Publisher       Publisher
	Recorder        RunRecorder
}

// Orchestrator runs one ingestion cycle across all configured sources.
type Orchestrator struct {
	sources   []provider.Source
	writer    *Writer
	refs      models.Refs
	timeout   time.Duration
	publisher Publisher
	recorder  RunRecorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrchestrator(sources []provider.Source, writer *Writer, refs models.Refs, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	return &Orchestrator{
		sources:   sources,
		writer:    writer,
		refs:      refs,
		timeout:   opts.ProviderTimeout,
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// RunOnce performs a manually triggered cycle.
func (o *Orchestrator) RunOnce(ctx context.Context) RunSummary {
	return o.Run(ctx, TriggerManual)
}

// Run fetches every source concurrently, persists what each returned and
// reports the outcome. Provider and per-record failures are folded into the
// summary; Run itself never fails.
func (o *Orchestrator) Run(ctx context.Context, trigger Trigger) RunSummary {
	ctx, span := tracer.Start(ctx, "ingest.Run")
	defer span.End()

	summary := RunSummary{
		RunID:     uuid.New(),
		Trigger:   trigger,
		StartedAt: o.now().UTC(),
		Providers: make([]ProviderSummary, len(o.sources)),
	}
	logger := o.logger.With(zap.String("run_id", summary.RunID.String()), zap.String("trigger", string(trigger)))
	span.SetAttributes(
		telemetry.String("run.id", summary.RunID.String()),
		telemetry.String("run.trigger", string(trigger)),
	)
	logger.Info("fetching latest jobs", zap.Int("providers", len(o.sources)))

	saved := make([][]models.Job, len(o.sources))

	var g errgroup.Group
	for i, src := range o.sources {
		g.Go(func() error {
			summary.Providers[i], saved[i] = o.ingest(ctx, src, logger)
			return nil
		})
	}
	_ = g.Wait()

	for _, jobs := range saved {
		o.publish(ctx, jobs, logger)
	}

	summary.FinishedAt = o.now().UTC()

	for _, p := range summary.Providers {
		logger.Info("provider sample",
			zap.String("provider", p.Provider),
			zap.Strings("titles", p.Sample))
	}
	logger.Info("job fetching completed",
		zap.Int("fetched", summary.Fetched()),
		zap.Int("saved", summary.Saved()),
		zap.Int("duplicates", summary.Duplicates()),
		zap.Int("failed", summary.Failed()),
		zap.Duration("duration", summary.Duration()))
	span.SetAttributes(
		telemetry.Int("run.fetched", summary.Fetched()),
		telemetry.Int("run.saved", summary.Saved()),
		telemetry.Duration("run.duration", summary.Duration()),
	)

	if o.recorder != nil {
		if err := o.recorder.Record(ctx, summary); err != nil {
			span.RecordError(err)
			logger.Error("failed to record run", zap.Error(err))
		}
	}

	return summary
}

func (o *Orchestrator) ingest(ctx context.Context, src provider.Source, logger *zap.Logger) (ProviderSummary, []models.Job) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	batch := src.Collect(fetchCtx)
	cancel()

	ps := ProviderSummary{
		Provider: src.Name(),
		Fetched:  len(batch.Jobs),
		Sample:   sample(batch.Jobs),
		Disabled: batch.Disabled,
	}
	if batch.Err != nil {
		ps.Error = batch.Err.Error()
	}

	var saved []models.Job
	for _, job := range batch.Jobs {
		if err := ctx.Err(); err != nil {
			logger.Warn("cycle cancelled, dropping remaining listings",
				zap.String("provider", ps.Provider),
				zap.Int("remaining", ps.Fetched-ps.Saved-ps.Duplicates-ps.Failed))
			break
		}

		job.Company = o.refs.Company
		job.CreatedBy = o.refs.CreatedBy

		stored, outcome := o.writer.Put(ctx, job)
		switch outcome {
		case Saved:
			ps.Saved++
			saved = append(saved, stored)
		case Duplicate:
			ps.Duplicates++
		default:
			ps.Failed++
		}
	}

	return ps, saved
}

func (o *Orchestrator) publish(ctx context.Context, jobs []models.Job, logger *zap.Logger) {
	if o.publisher == nil {
		return
	}
	for _, job := range jobs {
		if err := o.publisher.PublishJobIngested(ctx, job); err != nil {
			logger.Warn("failed to publish ingested job",
				zap.String("id", job.ID.String()),
				zap.Error(err))
		}
	}
}

func sample(jobs []models.Job) []string {
	n := min(len(jobs), sampleSize)
	titles := make([]string, 0, n)
	for _, job := range jobs[:n] {
		titles = append(titles, job.Title)
	}
	return titles
}
