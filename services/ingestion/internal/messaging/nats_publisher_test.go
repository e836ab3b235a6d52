package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestJobIngestedEventCarriesIdentity(t *testing.T) {
	job := models.Job{
		ID:        uuid.MustParse("33333333-3333-4333-8333-333333333333"),
		Title:     "Go Developer",
		Location:  "Pune",
		JobType:   "Full-time",
		Salary:    "Not disclosed",
		Company:   uuid.MustParse("11111111-1111-4111-8111-111111111111"),
		Source:    "jooble",
		CreatedAt: time.Date(2025, 1, 2, 6, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(NewJobIngestedEvent(job))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["id"] != "33333333-3333-4333-8333-333333333333" {
		t.Errorf("id = %v", got["id"])
	}
	if got["company"] != "11111111-1111-4111-8111-111111111111" {
		t.Errorf("company = %v", got["company"])
	}
	if got["source"] != "jooble" || got["title"] != "Go Developer" {
		t.Errorf("unexpected event %v", got)
	}
}

func TestNewPublisherUnreachable(t *testing.T) {
	_, err := NewPublisher(Config{URL: "nats://127.0.0.1:1", ConnTimeout: 200 * time.Millisecond}, zap.NewNop())
	if !errors.Is(err, errors.ErrTypeUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}
