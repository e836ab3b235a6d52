package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/history"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent ingestion cycles from the run history",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of rows to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.ClickHouseDSN == "" {
		return errors.Config("CLICKHOUSE_DSN is required to read run history", nil)
	}

	ch, err := newClickHouse(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("failed to connect to clickhouse", zap.Error(err))
		return err
	}
	defer ch.Close()

	rows, err := history.NewRecorder(ch.Conn(), logger).Recent(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTRIGGER\tPROVIDER\tFETCHED\tSAVED\tDUPLICATES\tFAILED\tSAMPLE\tERROR")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Format(time.RFC3339),
			r.Trigger,
			r.Provider,
			r.Fetched,
			r.Saved,
			r.Duplicates,
			r.Failed,
			strings.Join(r.Sample, "; "),
			r.Error,
		)
	}
	return w.Flush()
}
