package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/models"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobfeed/ingestion/provider")

// Adapter fetches one provider's raw listings and maps them onto the
// canonical Job. Fetch has no side effects besides the network call;
// Normalize is pure and leaves Company and CreatedBy unset.
type Adapter[L any] interface {
	Name() string
	Fetch(ctx context.Context) ([]L, error)
	Normalize(listing L) models.Job
}

// Batch is what one provider yielded in a cycle.
type Batch struct {
	Provider string
	Jobs     []models.Job
	// Disabled is set when the provider has no credentials configured.
	Disabled bool
	Err      error
}

// Source is the type-erased view of an Adapter used by the orchestrator.
type Source interface {
	Name() string
	Collect(ctx context.Context) Batch
}

type source[L any] struct {
	adapter Adapter[L]
	logger  *zap.Logger
}

// AsSource wraps an adapter so that configuration gaps and fetch failures are
// absorbed here, at the provider boundary, and only surface as a logged,
// empty Batch.
func AsSource[L any](adapter Adapter[L], logger *zap.Logger) Source {
	return &source[L]{adapter: adapter, logger: logger.With(zap.String("provider", adapter.Name()))}
}

func (s *source[L]) Name() string {
	return s.adapter.Name()
}

func (s *source[L]) Collect(ctx context.Context) Batch {
	ctx, span := tracer.Start(ctx, "provider.Collect")
	defer span.End()
	span.SetAttributes(telemetry.String("provider", s.adapter.Name()))

	batch := Batch{Provider: s.adapter.Name()}

	listings, err := s.adapter.Fetch(ctx)
	if errors.Is(err, errors.ErrTypeConfig) {
		s.logger.Warn("provider not configured, skipping", zap.Error(err))
		batch.Disabled = true
		return batch
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to fetch listings", zap.Error(err))
		batch.Err = err
		return batch
	}

	batch.Jobs = make([]models.Job, 0, len(listings))
	for _, l := range listings {
		job := s.adapter.Normalize(l)
		job.Source = s.adapter.Name()
		batch.Jobs = append(batch.Jobs, job)
	}

	span.SetAttributes(telemetry.Int("listings.count", len(listings)))
	s.logger.Info("provider returned listings", zap.Int("count", len(listings)))
	if len(batch.Jobs) > 0 {
		s.logger.Debug("first listing",
			zap.String("title", batch.Jobs[0].Title),
			zap.String("location", batch.Jobs[0].Location))
	}

	return batch
}

// DoJSON executes req and decodes a JSON body into out. Non-2xx statuses are
// mapped onto domain error types.
func DoJSON(client *http.Client, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Unavailable("executing request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Internal("decoding response", err)
	}
	return nil
}

// StatusError builds a typed error from an unsuccessful response, keeping a
// short prefix of the body for diagnosis.
func StatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	if snippet := strings.TrimSpace(string(body)); snippet != "" {
		msg += ": " + snippet
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return errors.Unauthorized(msg, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.RateLimit(msg, nil)
	case resp.StatusCode >= 500:
		return errors.Unavailable(msg, nil)
	default:
		return errors.Internal(msg, nil)
	}
}

// OrDefault returns v, or fallback when v is blank.
func OrDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
