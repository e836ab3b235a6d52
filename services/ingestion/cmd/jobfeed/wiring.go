package main

import (
	"context"
	"net/http"

	"jobfeed/common/database"
	"jobfeed/common/database/schema"
	"jobfeed/common/database/schema/migrations"
	"jobfeed/common/lock"
	"jobfeed/common/lock/flock"
	"jobfeed/common/lock/redis"
	"jobfeed/services/ingestion/internal/config"
	"jobfeed/services/ingestion/internal/history"
	"jobfeed/services/ingestion/internal/ingest"
	"jobfeed/services/ingestion/internal/messaging"
	"jobfeed/services/ingestion/internal/models"
	"jobfeed/services/ingestion/internal/provider"
	"jobfeed/services/ingestion/internal/provider/adzuna"
	"jobfeed/services/ingestion/internal/provider/jooble"
	"jobfeed/services/ingestion/internal/scheduler"
	"jobfeed/services/ingestion/internal/store"

	"go.uber.org/zap"
)

// collaborators holds optional components and how to close them.
type collaborators struct {
	opts    ingest.Options
	closers []func() error
}

func (c *collaborators) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.JobStore, error) {
	return store.Open(ctx, database.Options{
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxConns,
	}, logger)
}

// newLocker prefers a Redis lease shared by every host. Without a Redis
// address, or when Redis does not answer, it uses a file lock on this host.
func newLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) lock.Locker {
	opts := lock.DefaultOptions()
	opts.DefaultTTL = cfg.LockTTL
	opts.FilePath = cfg.LockFile

	if cfg.RedisAddr == "" {
		logger.Info("using file lock for ingestion lease", zap.String("path", cfg.LockFile))
		return flock.New(opts)
	}

	opts.RedisURL = cfg.RedisAddr
	opts.RedisPassword = cfg.RedisPassword
	opts.RedisDB = cfg.RedisDB
	locker := redis.New(opts)
	if err := locker.Ping(ctx); err != nil {
		_ = locker.Close()
		logger.Warn("redis unavailable, falling back to file lock",
			zap.String("addr", cfg.RedisAddr),
			zap.String("path", cfg.LockFile),
			zap.Error(err))
		return flock.New(opts)
	}
	logger.Info("using redis for ingestion lease", zap.String("addr", cfg.RedisAddr))
	return locker
}

func newClickHouse(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.ClickHouse, error) {
	return database.NewClickHouse(ctx, database.Options{
		DSN:          cfg.ClickHouseDSN,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		Username:     cfg.ClickHouseUsername,
		Password:     cfg.ClickHousePassword,
		Database:     cfg.ClickHouseDatabase,
	}, logger)
}

// newCollaborators connects the publisher and run recorder when configured.
// Either being unreachable is logged and the cycle runs without it.
func newCollaborators(ctx context.Context, cfg *config.Config, logger *zap.Logger) *collaborators {
	c := &collaborators{opts: ingest.Options{ProviderTimeout: cfg.ProviderTimeout}}

	if cfg.NATSURL != "" {
		publisher, err := messaging.NewPublisher(messaging.Config{
			URL:         cfg.NATSURL,
			ConnTimeout: cfg.NATSConnTimeout,
		}, logger.Named("messaging"))
		if err != nil {
			logger.Warn("nats unavailable, ingested jobs will not be published", zap.Error(err))
		} else {
			c.opts.Publisher = publisher
			c.closers = append(c.closers, publisher.Close)
		}
	}

	if cfg.ClickHouseDSN != "" {
		ch, err := newClickHouse(ctx, cfg, logger)
		if err != nil {
			logger.Warn("clickhouse unavailable, runs will not be recorded", zap.Error(err))
			return c
		}
		migrator := schema.NewMigrator(ch.Conn(), logger.Named("migrator"))
		if _, err := migrator.Migrate(ctx, migrations.All); err != nil {
			logger.Warn("failed to migrate run history schema", zap.Error(err))
			_ = ch.Close()
			return c
		}
		c.opts.Recorder = history.NewRecorder(ch.Conn(), logger.Named("history"))
		c.closers = append(c.closers, ch.Close)
	}

	return c
}

func newSources(cfg *config.Config, logger *zap.Logger) []provider.Source {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	return []provider.Source{
		provider.AsSource[adzuna.Listing](adzuna.New(adzuna.Config{
			AppID:      cfg.AdzunaAppID,
			AppKey:     cfg.AdzunaAppKey,
			Country:    cfg.AdzunaCountry,
			BaseURL:    cfg.AdzunaBaseURL,
			Keyword:    cfg.SearchKeyword,
			PageSize:   cfg.ResultsPerPage,
			HTTPClient: httpClient,
		}, logger), logger),
		provider.AsSource[jooble.Listing](jooble.New(jooble.Config{
			APIKey:     cfg.JoobleKey,
			BaseURL:    cfg.JoobleBaseURL,
			Keyword:    cfg.SearchKeyword,
			Location:   cfg.JoobleLocation,
			HTTPClient: httpClient,
		}, logger), logger),
	}
}

func newOrchestrator(cfg *config.Config, jobs store.JobStore, opts ingest.Options, logger *zap.Logger) *ingest.Orchestrator {
	refs := models.Refs{Company: cfg.DefaultCompany, CreatedBy: cfg.SystemUser}
	return ingest.NewOrchestrator(
		newSources(cfg, logger.Named("provider")),
		ingest.NewWriter(jobs, logger.Named("writer")),
		refs,
		opts,
		logger.Named("ingest"),
	)
}

func newScheduler(cfg *config.Config, runner scheduler.Runner, locker lock.Locker, logger *zap.Logger) (*scheduler.JobScheduler, error) {
	return scheduler.NewJobScheduler(runner, scheduler.Options{
		Schedule: cfg.Schedule,
		Locker:   locker,
		LeaseTTL: cfg.LockTTL,
	}, logger.Named("scheduler"))
}

func logSummary(logger *zap.Logger, summary ingest.RunSummary) {
	for _, p := range summary.Providers {
		fields := []zap.Field{
			zap.String("provider", p.Provider),
			zap.Int("fetched", p.Fetched),
			zap.Int("saved", p.Saved),
			zap.Int("duplicates", p.Duplicates),
			zap.Int("failed", p.Failed),
		}
		if p.Disabled {
			fields = append(fields, zap.Bool("disabled", true))
		}
		if p.Error != "" {
			fields = append(fields, zap.String("error", p.Error))
		}
		logger.Info("provider result", fields...)
	}
}
