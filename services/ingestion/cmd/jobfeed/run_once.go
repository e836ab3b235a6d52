package main

import (
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Run a single ingestion cycle and exit",
	Long:  "Run one ingestion cycle under the same lease as the daemon, so it never overlaps a scheduled cycle.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runOnceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
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

	jobs, err := openStore(ctx, cfg, logger.Named("store"))
	if err != nil {
		logger.Error("failed to connect to job store", zap.Error(err))
		return err
	}
	defer jobs.Close()

	locker := newLocker(ctx, cfg, logger)
	defer locker.Close()

	collab := newCollaborators(ctx, cfg, logger)
	defer collab.Close()

	s, err := newScheduler(cfg, newOrchestrator(cfg, jobs, collab.opts, logger), locker, logger)
	if err != nil {
		return err
	}

	logger.Info("manual run: fetching latest jobs")
	summary, err := s.Trigger(ctx)
	if stderrors.Is(err, scheduler.ErrCycleRunning) {
		logger.Warn("another ingestion cycle is running, nothing to do")
		return nil
	}
	if err != nil {
		logger.Error("manual run failed", zap.Error(err))
		return err
	}

	logSummary(logger, summary)
	logger.Info("manual run: job fetching completed",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("saved", summary.Saved()))
	return nil
}
