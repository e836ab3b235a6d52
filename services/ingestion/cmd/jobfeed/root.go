package main

import (
	"fmt"
	"strings"

	"jobfeed/services/ingestion/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName    = "jobfeed-ingestion"
	serviceVersion = "0.1.0"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobfeed",
	Short: "Aggregate developer job listings from public job boards",
	Long: "jobfeed periodically pulls the latest developer listings from Adzuna and Jooble, " +
		"normalizes them and stores each (title, location, company) once.",
	SilenceUsage: true,
	// no subcommand runs the daemon
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file (default: CONFIG_FILE env var)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// setupLogger builds a development logger for debug runs and a production
// logger at the configured level otherwise.
func setupLogger(level string) (*zap.Logger, error) {
	if debug || strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}

	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}

// bootstrap loads configuration and the logger shared by every command.
// Commands that never touch the job store skip validation.
func bootstrap(validate bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if !validate {
		return cfg, logger, nil
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		_ = logger.Sync()
		return nil, nil, err
	}
	return cfg, logger, nil
}
