package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"jobfeed/common/lock"
	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/config"
	"jobfeed/services/ingestion/internal/ingest"
	"jobfeed/services/ingestion/internal/scheduler"
	"jobfeed/services/ingestion/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion daemon",
	Long:  "Connect to the job store, run one cycle immediately and then one per schedule tick until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, serviceVersion, cfg.OTELCollectorURL)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracer()
	}

	logger.Info("starting ingestion service",
		zap.String("schedule", cfg.Schedule),
		zap.Duration("provider_timeout", cfg.ProviderTimeout),
		zap.Duration("http_timeout", cfg.HTTPTimeout))

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Supply(cfg, logger),
		fx.Provide(
			provideStore,
			provideLocker,
			provideCollaborators,
			provideOrchestrator,
			provideScheduler,
		),
		fx.Invoke(registerScheduler),
	)
	if err := app.Err(); err != nil {
		logger.Error("failed to initialise ingestion service", zap.Error(err))
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		logger.Error("failed to start ingestion service", zap.Error(err))
		return err
	}
	logger.Info("ingestion service started successfully")

	<-ctx.Done()
	logger.Info("shutting down...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// provideStore connects before anything is scheduled; a failure aborts start-up.
func provideStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (store.JobStore, error) {
	jobs, err := openStore(context.Background(), cfg, logger.Named("store"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return jobs.Close()
		},
	})
	return jobs, nil
}

func provideLocker(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) lock.Locker {
	locker := newLocker(context.Background(), cfg, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return locker.Close()
		},
	})
	return locker
}

func provideCollaborators(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) ingest.Options {
	c := newCollaborators(context.Background(), cfg, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			c.Close()
			return nil
		},
	})
	return c.opts
}

func provideOrchestrator(cfg *config.Config, jobs store.JobStore, opts ingest.Options, logger *zap.Logger) *ingest.Orchestrator {
	return newOrchestrator(cfg, jobs, opts, logger)
}

func provideScheduler(cfg *config.Config, orchestrator *ingest.Orchestrator, locker lock.Locker, logger *zap.Logger) (*scheduler.JobScheduler, error) {
	return newScheduler(cfg, orchestrator, locker, logger)
}

func registerScheduler(lc fx.Lifecycle, s *scheduler.JobScheduler, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := s.Start(context.Background()); err != nil && !stderrors.Is(err, context.Canceled) {
					logger.Error("job scheduler failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
}
