package adzuna

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/models"
	"jobfeed/services/ingestion/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	Name = "adzuna"

	defaultBaseURL    = "https://api.adzuna.com"
	defaultCountry    = "in"
	defaultKeyword    = "developer"
	defaultPageSize   = 10
	defaultMaxDaysOld = 1
)

var tracer = telemetry.GetTracer("jobfeed/ingestion/provider/adzuna")

// Client queries the Adzuna job search API.
type Client struct {
	cfg    Config
	logger *zap.Logger
}

var _ provider.Adapter[Listing] = (*Client)(nil)

// New builds a client. Missing credentials are not an error here; Fetch
// reports them so the caller can skip the provider for the cycle.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Country == "" {
		cfg.Country = defaultCountry
	}
	if cfg.Keyword == "" {
		cfg.Keyword = defaultKeyword
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxDaysOld <= 0 {
		cfg.MaxDaysOld = defaultMaxDaysOld
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	return &Client{cfg: cfg, logger: logger.Named(Name)}
}

func (c *Client) Name() string {
	return Name
}

// Fetch requests the first page of the most recent listings.
func (c *Client) Fetch(ctx context.Context) ([]Listing, error) {
	if c.cfg.AppID == "" || c.cfg.AppKey == "" {
		return nil, errors.Config("adzuna app_id and app_key are not set", nil)
	}

	ctx, span := tracer.Start(ctx, "adzuna.Fetch")
	defer span.End()

	u, err := c.searchURL()
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("building search url", err)
	}
	span.SetAttributes(telemetry.String("adzuna.country", c.cfg.Country))
	c.logger.Debug("searching listings", zap.String("country", c.cfg.Country), zap.String("what", c.cfg.Keyword))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("creating request", err)
	}

	var payload searchResponse
	if err := provider.DoJSON(c.cfg.HTTPClient, req, &payload); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(telemetry.Int("adzuna.results", len(payload.Results)))
	return payload.Results, nil
}

// Normalize maps a listing onto the canonical job with ingestion defaults.
func (c *Client) Normalize(l Listing) models.Job {
	job := models.Job{
		Title:           l.Title,
		Description:     provider.OrDefault(l.Description, models.DefaultDescription),
		Requirements:    []string{},
		Salary:          salary(l.SalaryMin, l.SalaryMax),
		ExperienceLevel: models.DefaultExperienceLevel,
		Location:        models.DefaultLocation,
		JobType:         provider.OrDefault(l.ContractType, models.DefaultJobType),
		Position:        models.DefaultPosition,
		Applications:    []uuid.UUID{},
	}
	if l.Category != nil && l.Category.Label != "" {
		job.Requirements = []string{l.Category.Label}
	}
	if l.Location != nil {
		job.Location = provider.OrDefault(l.Location.DisplayName, models.DefaultLocation)
	}
	return job
}

func (c *Client) searchURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	u.Path = path.Join(u.Path, "v1", "api", "jobs", c.cfg.Country, "search", "1")

	values := url.Values{}
	values.Set("app_id", c.cfg.AppID)
	values.Set("app_key", c.cfg.AppKey)
	values.Set("what", c.cfg.Keyword)
	values.Set("sort_by", "date")
	values.Set("max_days_old", strconv.Itoa(c.cfg.MaxDaysOld))
	values.Set("results_per_page", strconv.Itoa(c.cfg.PageSize))

	u.RawQuery = values.Encode()
	return u.String(), nil
}

// salary renders "min - max". A zero or absent minimum means undisclosed.
func salary(minimum, maximum *float64) string {
	if minimum == nil || *minimum == 0 {
		return models.DefaultSalary
	}
	if maximum == nil {
		return formatAmount(*minimum)
	}
	return fmt.Sprintf("%s - %s", formatAmount(*minimum), formatAmount(*maximum))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
