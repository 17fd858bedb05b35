package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/freeseed/exams-tw/internal/catalog"
	"github.com/freeseed/exams-tw/internal/download"
	"github.com/freeseed/exams-tw/internal/ingest"
)

var (
	fetchCatalog string
	fetchStart   int
	fetchSkip    bool
)

// fetchCmd downloads every PDF in the catalog and writes one exam record per row.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download catalog PDFs and write exam records",
	Long: `Reads the catalog CSV, downloads each question and answer PDF into the
question bank and writes fseNNNNNNNN.json records. Identifiers continue
after the highest one found in the JSON folders unless --start is given.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchCatalog, "catalog", "", "catalog CSV (default CATALOG_CSV)")
	fetchCmd.Flags().IntVar(&fetchStart, "start", 0, "first fse number to assign")
	fetchCmd.Flags().BoolVar(&fetchSkip, "skip-existing", true, "keep PDFs already in the question bank")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	path := fetchCatalog
	if path == "" {
		path = cfg.Paths.CatalogCSV
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	rows, err := catalog.ReadRows(f)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	start := fetchStart
	if start <= 0 {
		start, err = catalog.NextFree(cfg.Paths.QuestionJSON, cfg.Paths.JSONDone, cfg.Paths.JSONAll)
		if err != nil {
			return err
		}
	}

	seq := catalog.NewSequence(start)
	logger.Info("fetch.start", "catalog", path, "rows", len(rows), "first_id", seq.Peek())

	fetcher := download.NewFetcher(download.Config{
		Timeout:   cfg.Download.Timeout,
		UserAgent: cfg.Download.UserAgent,
	}, nil, logger)
	ing := ingest.NewCatalogIngestor(ingest.Config{
		QuestionBank: cfg.Paths.QuestionBank,
		QuestionJSON: cfg.Paths.QuestionJSON,
		SkipExisting: fetchSkip,
	}, fetcher, seq, logger)

	rep, err := ing.Run(cmd.Context(), rows)
	logger.Info("fetch.done", "rows", rep.Rows, "written", rep.Written, "skipped", rep.Skipped,
		"downloaded", rep.Downloaded, "download_failures", rep.DownloadFailures,
		"first_id", rep.FirstID, "last_id", rep.LastID)
	return err
}
