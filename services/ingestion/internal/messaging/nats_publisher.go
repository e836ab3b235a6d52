package messaging

import (
	"context"
	"encoding/json"
	"time"

	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/models"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobfeed/ingestion/messaging")

const (
	JobIngestedSubject = "jobs.ingested"

	flushTimeout = 5 * time.Second
)

// JobIngestedEvent is published once for every newly stored job.
type JobIngestedEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	JobType   string    `json:"job_type"`
	Salary    string    `json:"salary"`
	Company   string    `json:"company"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func NewJobIngestedEvent(job models.Job) JobIngestedEvent {
	return JobIngestedEvent{
		ID:        job.ID.String(),
		Title:     job.Title,
		Location:  job.Location,
		JobType:   job.JobType,
		Salary:    job.Salary,
		Company:   job.Company.String(),
		Source:    job.Source,
		CreatedAt: job.CreatedAt,
	}
}

type Config struct {
	URL         string
	ConnTimeout time.Duration
}

type Publisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("jobfeed-ingestion"),
		nats.Timeout(cfg.ConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}

	logger.Info("connected to nats", zap.String("url", conn.ConnectedUrlRedacted()))

	return &Publisher{
		conn:   conn,
		logger: logger,
	}, nil
}

func (p *Publisher) PublishJobIngested(ctx context.Context, job models.Job) error {
	_, span := tracer.Start(ctx, "PublishJobIngested")
	defer span.End()

	data, err := json.Marshal(NewJobIngestedEvent(job))
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling job ingested event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", JobIngestedSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(JobIngestedSubject, data); err != nil {
		span.RecordError(err)
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published job ingested event",
		zap.String("id", job.ID.String()),
		zap.String("subject", JobIngestedSubject))
	return nil
}

// Close flushes buffered events before closing the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	defer p.conn.Close()
	if err := p.conn.FlushTimeout(flushTimeout); err != nil {
		p.logger.Warn("failed to flush nats connection", zap.Error(err))
		return err
	}
	return nil
}
