package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"jobfeed/services/ingestion/internal/errors"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultSchedule = "0 */6 * * *"

	// Fixed placeholders for provider listings that are not linked to a
	// registered company or user.
	defaultCompanyID = "5f1d7c8a-2f4e-5b6a-9c3d-0e1f2a3b4c5d"
	defaultSystemID  = "8b0e4a6c-7d2f-5e1a-b3c4-d5e6f7a8b9c0"
)

type Config struct {
	LogLevel string

	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string
	AdzunaBaseURL string

	JoobleKey      string
	JoobleBaseURL  string
	JoobleLocation string

	SearchKeyword   string
	ResultsPerPage  int
	HTTPTimeout     time.Duration
	ProviderTimeout time.Duration

	DatabaseURL string
	DBMaxConns  int

	Schedule        string
	DefaultCompany  uuid.UUID
	SystemUser      uuid.UUID
	LockFile        string
	LockTTL         time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	NATSURL         string
	NATSConnTimeout time.Duration

	ClickHouseDSN      string
	ClickHouseUsername string
	ClickHousePassword string
	ClickHouseDatabase string

	OTELCollectorURL string
}

// fileConfig mirrors the non-secret settings that may come from a YAML file.
type fileConfig struct {
	LogLevel        string `yaml:"log_level"`
	AdzunaCountry   string `yaml:"adzuna_country"`
	JoobleLocation  string `yaml:"jooble_location"`
	SearchKeyword   string `yaml:"search_keyword"`
	ResultsPerPage  int    `yaml:"results_per_page"`
	HTTPTimeout     string `yaml:"http_timeout"`
	ProviderTimeout string `yaml:"provider_timeout"`
	Schedule        string `yaml:"schedule"`
	LockFile        string `yaml:"lock_file"`
	LockTTL         string `yaml:"lock_ttl"`
}

// LoadConfig reads settings from the environment. When path is non-empty (or
// CONFIG_FILE is set) a YAML file is applied first and environment variables
// override it.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	var file fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Config("reading config file", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.Config("parsing config file", err)
		}
	}

	cfg := &Config{
		LogLevel: getEnvString("LOG_LEVEL", orString(file.LogLevel, "info")),

		AdzunaAppID:   getEnvString("ADZUNA_APP_ID", ""),
		AdzunaAppKey:  getEnvString("ADZUNA_APP_KEY", ""),
		AdzunaCountry: getEnvString("ADZUNA_COUNTRY", orString(file.AdzunaCountry, "in")),
		AdzunaBaseURL: getEnvString("ADZUNA_BASE_URL", "https://api.adzuna.com"),

		JoobleKey:      getEnvString("JOOBLE_KEY", ""),
		JoobleBaseURL:  getEnvString("JOOBLE_BASE_URL", "https://jooble.org"),
		JoobleLocation: getEnvString("JOOBLE_LOCATION", orString(file.JoobleLocation, "India")),

		SearchKeyword:   getEnvString("SEARCH_KEYWORD", orString(file.SearchKeyword, "developer")),
		ResultsPerPage:  getEnvInt("RESULTS_PER_PAGE", orInt(file.ResultsPerPage, 10)),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", orDuration(file.HTTPTimeout, 20*time.Second)),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", orDuration(file.ProviderTimeout, 30*time.Second)),

		DatabaseURL: getEnvString("DATABASE_URL", ""),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 10),

		Schedule:        getEnvString("SCHEDULE", orString(file.Schedule, defaultSchedule)),
		LockFile:        getEnvString("LOCK_FILE", orString(file.LockFile, os.TempDir()+"/jobfeed.lock")),
		LockTTL:         getEnvDuration("LOCK_TTL", orDuration(file.LockTTL, time.Hour)),
		RedisAddr:       getEnvString("REDIS_ADDR", ""),
		RedisPassword:   getEnvString("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		ClickHouseDSN:      getEnvString("CLICKHOUSE_DSN", ""),
		ClickHouseUsername: getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase: getEnvString("CLICKHOUSE_DATABASE", "jobfeed"),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
	}

	var err error
	if cfg.DefaultCompany, err = uuid.Parse(getEnvString("DEFAULT_COMPANY_ID", defaultCompanyID)); err != nil {
		return nil, errors.Config("DEFAULT_COMPANY_ID is not a UUID", err)
	}
	if cfg.SystemUser, err = uuid.Parse(getEnvString("SYSTEM_USER_ID", defaultSystemID)); err != nil {
		return nil, errors.Config("SYSTEM_USER_ID is not a UUID", err)
	}

	return cfg, nil
}

// Validate reports settings without which the service cannot run. Provider
// credentials are deliberately not checked here.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.Config("DATABASE_URL is required", nil)
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return errors.Config(fmt.Sprintf("invalid SCHEDULE %q", c.Schedule), err)
	}
	if c.ResultsPerPage <= 0 {
		return errors.Config("RESULTS_PER_PAGE must be positive", nil)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func orString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orDuration(v string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}
