package jooble

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/models"
	"jobfeed/services/ingestion/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	Name = "jooble"

	defaultBaseURL  = "https://jooble.org"
	defaultKeyword  = "developer"
	defaultLocation = "India"
)

var tracer = telemetry.GetTracer("jobfeed/ingestion/provider/jooble")

type Config struct {
	APIKey     string
	BaseURL    string
	Keyword    string
	Location   string
	HTTPClient *http.Client
}

// Listing is one raw entry of a Jooble search response.
type Listing struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
	Salary   string `json:"salary"`
	Source   string `json:"source"`
	Type     string `json:"type"`
	Link     string `json:"link"`
	Company  string `json:"company"`
	Updated  string `json:"updated"`
}

type searchRequest struct {
	Keywords string `json:"keywords"`
	Location string `json:"location"`
	Page     int    `json:"page"`
}

type searchResponse struct {
	TotalCount int       `json:"totalCount"`
	Jobs       []Listing `json:"jobs"`
}

type Client struct {
	cfg    Config
	logger *zap.Logger
}

var _ provider.Adapter[Listing] = (*Client)(nil)

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Keyword == "" {
		cfg.Keyword = defaultKeyword
	}
	if cfg.Location == "" {
		cfg.Location = defaultLocation
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	return &Client{cfg: cfg, logger: logger.Named(Name)}
}

func (c *Client) Name() string {
	return Name
}

// Fetch posts the fixed first-page search. The API key is part of the path.
func (c *Client) Fetch(ctx context.Context) ([]Listing, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.Config("jooble api key is not set", nil)
	}

	ctx, span := tracer.Start(ctx, "jooble.Fetch")
	defer span.End()

	body, err := json.Marshal(searchRequest{
		Keywords: c.cfg.Keyword,
		Location: c.cfg.Location,
		Page:     1,
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("encoding search request", err)
	}

	endpoint := c.cfg.BaseURL + "/api/" + url.PathEscape(c.cfg.APIKey)
	c.logger.Debug("searching listings", zap.String("keywords", c.cfg.Keyword), zap.String("location", c.cfg.Location))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var payload searchResponse
	if err := provider.DoJSON(c.cfg.HTTPClient, req, &payload); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(telemetry.Int("jooble.results", len(payload.Jobs)))
	return payload.Jobs, nil
}

func (c *Client) Normalize(l Listing) models.Job {
	return models.Job{
		Title:           l.Title,
		Description:     provider.OrDefault(l.Snippet, models.DefaultDescription),
		Requirements:    []string{},
		Salary:          provider.OrDefault(l.Salary, models.DefaultSalary),
		ExperienceLevel: models.DefaultExperienceLevel,
		Location:        provider.OrDefault(l.Location, models.DefaultLocation),
		JobType:         provider.OrDefault(l.Type, models.DefaultJobType),
		Position:        models.DefaultPosition,
		Applications:    []uuid.UUID{},
	}
}
