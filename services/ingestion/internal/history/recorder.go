package history

import (
	"context"
	"fmt"
	"time"

	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/ingest"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobfeed/ingestion/history")

// Row is one provider's share of a cycle as stored in ingest_runs.
type Row struct {
	RunID      uuid.UUID
	Trigger    string
	Provider   string
	Fetched    uint32
	Saved      uint32
	Duplicates uint32
	Failed     uint32
	Sample     []string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Rows flattens a summary into one row per provider.
func Rows(summary ingest.RunSummary) []Row {
	rows := make([]Row, 0, len(summary.Providers))
	for _, p := range summary.Providers {
		errText := p.Error
		if p.Disabled {
			errText = "not configured"
		}
		sample := p.Sample
		if sample == nil {
			sample = []string{}
		}
		rows = append(rows, Row{
			RunID:      summary.RunID,
			Trigger:    string(summary.Trigger),
			Provider:   p.Provider,
			Fetched:    uint32(p.Fetched),
			Saved:      uint32(p.Saved),
			Duplicates: uint32(p.Duplicates),
			Failed:     uint32(p.Failed),
			Sample:     sample,
			Error:      errText,
			StartedAt:  summary.StartedAt,
			FinishedAt: summary.FinishedAt,
		})
	}
	return rows
}

// Recorder writes cycle summaries to ClickHouse.
type Recorder struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

var _ ingest.RunRecorder = (*Recorder)(nil)

func NewRecorder(conn clickhouse.Conn, logger *zap.Logger) *Recorder {
	return &Recorder{conn: conn, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, summary ingest.RunSummary) error {
	ctx, span := tracer.Start(ctx, "history.Record")
	defer span.End()

	rows := Rows(summary)
	if len(rows) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO ingest_runs (
			run_id, trigger, provider, fetched, saved, duplicates, failed,
			sample, error, started_at, finished_at
		)
	`)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("prepare ingest_runs batch: %w", err)
	}

	for _, row := range rows {
		if err := batch.Append(
			row.RunID,
			row.Trigger,
			row.Provider,
			row.Fetched,
			row.Saved,
			row.Duplicates,
			row.Failed,
			row.Sample,
			row.Error,
			row.StartedAt,
			row.FinishedAt,
		); err != nil {
			_ = batch.Abort()
			span.RecordError(err)
			return fmt.Errorf("append ingest_runs row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("send ingest_runs batch: %w", err)
	}

	span.SetAttributes(telemetry.Int("history.rows", len(rows)))
	r.logger.Debug("recorded run", zap.String("run_id", summary.RunID.String()), zap.Int("rows", len(rows)))
	return nil
}

// Recent returns the rows of the latest cycles, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.conn.Query(ctx, `
		SELECT run_id, trigger, provider, fetched, saved, duplicates, failed,
			sample, error, started_at, finished_at
		FROM ingest_runs
		ORDER BY started_at DESC, provider
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ingest_runs: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.RunID,
			&row.Trigger,
			&row.Provider,
			&row.Fetched,
			&row.Saved,
			&row.Duplicates,
			&row.Failed,
			&row.Sample,
			&row.Error,
			&row.StartedAt,
			&row.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ingest_runs row: %w", err)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
