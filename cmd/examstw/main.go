// Command examstw scrapes, extracts and publishes Taiwanese civil-service
// exam papers.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/freeseed/exams-tw/internal/common"
)

var (
	cfg      *common.Config
	logger   *slog.Logger
	logClose io.Closer

	logFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "examstw",
	Short: "Exam paper pipeline: fetch, extract, resolve, load",
	Long: `examstw turns the exam catalog CSV into structured question banks.

Typical order:
  fetch     - download PDFs listed in the catalog and write exam records
  extract   - parse question/answer PDFs with the layout heuristics
  resolve   - fill the remaining papers with the Gemini resolver
  load      - upsert exam records into MongoDB
  housekeep - archive loaded records and mark them parsed`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = common.LoadConfig()
		if logFile != "" {
			cfg.Log.File = logFile
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		l, closer, err := common.NewLogger(cfg.Log.File, cfg.Log.Level)
		if err != nil {
			return err
		}
		logger, logClose = l, closer
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logClose != nil {
			_ = logClose.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file (or set LOG_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (or set LOG_LEVEL)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(housekeepCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
