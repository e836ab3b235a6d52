package adzuna

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/models"

	"go.uber.org/zap"
)

const sampleResponse = `{
	"count": 2,
	"results": [
		{
			"id": "4711",
			"title": "Go Developer",
			"description": "Build services",
			"location": {"display_name": "Bengaluru, Karnataka"},
			"category": {"label": "IT Jobs"},
			"contract_type": "permanent",
			"salary_min": 600000,
			"salary_max": 900000.5
		},
		{
			"id": "4712",
			"title": "Backend Engineer",
			"salary_min": null
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		AppID:      "id",
		AppKey:     "key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	}, zap.NewNop())
}

func TestFetchSendsFixedQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/v1/api/jobs/in/search/1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"app_id":           "id",
			"app_key":          "key",
			"what":             "developer",
			"sort_by":          "date",
			"max_days_old":     "1",
			"results_per_page": "10",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("query %s = %q, want %q", k, got, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	})

	listings, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	if listings[0].Title != "Go Developer" {
		t.Errorf("first title = %q", listings[0].Title)
	}
}

func TestFetchWithoutCredentialsIsConfigError(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	client.cfg.AppKey = ""

	listings, err := client.Fetch(context.Background())
	if !errors.Is(err, errors.ErrTypeConfig) {
		t.Fatalf("err = %v, want config error", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings, want none", len(listings))
	}
	if called {
		t.Error("expected no request without credentials")
	}
}

func TestFetchMapsStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errors.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrTypeUnauthorized},
		{"rate limited", http.StatusTooManyRequests, errors.ErrTypeRateLimit},
		{"server error", http.StatusBadGateway, errors.ErrTypeUnavailable},
		{"bad request", http.StatusBadRequest, errors.ErrTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := client.Fetch(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestFetchMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [`))
	})

	if _, err := client.Fetch(context.Background()); !errors.Is(err, errors.ErrTypeInternal) {
		t.Fatalf("err = %v, want internal error", err)
	}
}

func TestNormalize(t *testing.T) {
	client := New(Config{}, zap.NewNop())
	minimum, maximum := 600000.0, 900000.5

	tests := []struct {
		name    string
		listing Listing
		want    models.Job
	}{
		{
			name: "all fields present",
			listing: Listing{
				Title:        "Go Developer",
				Description:  "Build services",
				Location:     &place{DisplayName: "Bengaluru, Karnataka"},
				Category:     &category{Label: "IT Jobs"},
				ContractType: "permanent",
				SalaryMin:    &minimum,
				SalaryMax:    &maximum,
			},
			want: models.Job{
				Title:        "Go Developer",
				Description:  "Build services",
				Requirements: []string{"IT Jobs"},
				Salary:       "600000 - 900000.5",
				Location:     "Bengaluru, Karnataka",
				JobType:      "permanent",
			},
		},
		{
			name:    "only a title",
			listing: Listing{Title: "Backend Engineer"},
			want: models.Job{
				Title:        "Backend Engineer",
				Description:  "Not provided",
				Requirements: []string{},
				Salary:       "Not disclosed",
				Location:     "Remote",
				JobType:      "Full-time",
			},
		},
		{
			name:    "minimum without maximum",
			listing: Listing{Title: "SRE", SalaryMin: &minimum, Location: &place{}},
			want: models.Job{
				Title:        "SRE",
				Description:  "Not provided",
				Requirements: []string{},
				Salary:       "600000",
				Location:     "Remote",
				JobType:      "Full-time",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := client.Normalize(tt.listing)
			if got.Title != tt.want.Title ||
				got.Description != tt.want.Description ||
				got.Salary != tt.want.Salary ||
				got.Location != tt.want.Location ||
				got.JobType != tt.want.JobType {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
			if len(got.Requirements) != len(tt.want.Requirements) {
				t.Fatalf("Requirements = %v, want %v", got.Requirements, tt.want.Requirements)
			}
			for i := range got.Requirements {
				if got.Requirements[i] != tt.want.Requirements[i] {
					t.Errorf("Requirements = %v, want %v", got.Requirements, tt.want.Requirements)
				}
			}
			if got.ExperienceLevel != 1 || got.Position != 1 {
				t.Errorf("experienceLevel=%d position=%d, want 1 and 1", got.ExperienceLevel, got.Position)
			}
			if got.Applications == nil || len(got.Applications) != 0 {
				t.Errorf("Applications = %v, want empty", got.Applications)
			}
		})
	}
}
