package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeAdapter struct {
	listings []string
	err      error
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]string, error) {
	return f.listings, f.err
}

func (f *fakeAdapter) Normalize(title string) models.Job {
	return models.Job{Title: title, Location: models.DefaultLocation}
}

func TestCollectNormalizesAndTagsSource(t *testing.T) {
	src := AsSource[string](&fakeAdapter{listings: []string{"a", "b"}}, zap.NewNop())

	batch := src.Collect(context.Background())

	if batch.Err != nil || batch.Disabled {
		t.Fatalf("unexpected batch state: %+v", batch)
	}
	if len(batch.Jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(batch.Jobs))
	}
	for _, job := range batch.Jobs {
		if job.Source != "fake" {
			t.Errorf("Source = %q, want fake", job.Source)
		}
	}
}

func TestCollectConfigGapWarns(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	src := AsSource[string](&fakeAdapter{err: errors.Config("no key", nil)}, zap.New(core))

	batch := src.Collect(context.Background())

	if !batch.Disabled || batch.Err != nil || len(batch.Jobs) != 0 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Errorf("expected one warning, got %v", logs.All())
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 0 {
		t.Errorf("config gap must not log at error level")
	}
}

func TestCollectFetchFailureLogsError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	src := AsSource[string](&fakeAdapter{err: errors.Unavailable("down", nil)}, zap.New(core))

	batch := src.Collect(context.Background())

	if batch.Err == nil || len(batch.Jobs) != 0 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(entries) != 1 {
		t.Fatalf("expected one error log, got %d", len(entries))
	}
	if entries[0].ContextMap()["provider"] != "fake" {
		t.Errorf("error log missing provider field: %v", entries[0].ContextMap())
	}
}

func TestDoJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out struct {
		Name string `json:"name"`
	}
	if err := DoJSON(srv.Client(), req, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Name != "ok" {
		t.Errorf("Name = %q", out.Name)
	}
}

func TestDoJSONUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	req, _ := http.NewRequest(http.MethodGet, url, nil)
	var out map[string]any
	if err := DoJSON(http.DefaultClient, req, &out); !errors.Is(err, errors.ErrTypeUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}

func TestOrDefault(t *testing.T) {
	if got := OrDefault("  ", "x"); got != "x" {
		t.Errorf("OrDefault(blank) = %q", got)
	}
	if got := OrDefault("v", "x"); got != "v" {
		t.Errorf("OrDefault(v) = %q", got)
	}
}
