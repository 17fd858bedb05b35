package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/extract"
	"github.com/freeseed/exams-tw/internal/imaging"
	"github.com/freeseed/exams-tw/internal/ingest"
	"github.com/freeseed/exams-tw/internal/pdftext"
	processor "github.com/freeseed/exams-tw/internal/pipeline"
	repo "github.com/freeseed/exams-tw/internal/repository"
	"github.com/freeseed/exams-tw/internal/server"
)

var (
	extractDir       string
	extractFile      string
	extractLayout    string
	extractRules     string
	extractPdftotext string
	extractWatch     bool
)

// extractCmd runs the layout heuristics over exam records.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract questions, answers and images with the layout heuristics",
	Long: `Selects a layout for every exam record from the layout rules, parses the
question and answer PDFs and writes 題庫 back into the record. Each attempt
is recorded in the extraction ledger.

Layouts: numbered-dot, pua-spaced, pua-inline (aliases type01..type05).`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractDir, "dir", "", "folder of exam records (default QUESTION_JSON_DIR)")
	extractCmd.Flags().StringVar(&extractFile, "file", "", "process a single exam record")
	extractCmd.Flags().StringVar(&extractLayout, "layout", "", "force a layout instead of the rules")
	extractCmd.Flags().StringVar(&extractRules, "rules", "", "layout rules YAML (default LAYOUT_RULES or built-in)")
	extractCmd.Flags().StringVar(&extractPdftotext, "pdftotext", "pdftotext", "pdftotext binary for answer sheets")
	extractCmd.Flags().BoolVar(&extractWatch, "watch", false, "keep running and extract records as they appear")
}

func loadRules() (*extract.Rules, error) {
	path := extractRules
	if path == "" {
		path = cfg.Paths.LayoutRules
	}
	if path == "" {
		return extract.DefaultRules()
	}
	return extract.LoadRules(path)
}

func openJobs(ctx context.Context) (repo.ExtractJobRepository, func(), error) {
	ledger, err := server.ConnectLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		return nil, nil, err
	}
	return repo.NewExtractJobRepository(ledger, logger), func() { server.CloseAll(ledger, nil, logger) }, nil
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := common.WithRunID(cmd.Context(), newRunID())

	rules, err := loadRules()
	if err != nil {
		return fmt.Errorf("layout rules: %w", err)
	}
	jobs, closeJobs, err := openJobs(ctx)
	if err != nil {
		return err
	}
	defer closeJobs()

	x := extract.NewExtractor(rules, imaging.NewWriter(cfg.Paths.Images, logger), logger)
	fallback := pdftext.NewExtractor(pdftext.Config{Pdftotext: extractPdftotext}, nil, logger)
	p := processor.NewProcessor(logger, jobs, x, fallback, cfg.Paths.QuestionBank)
	if extractLayout != "" {
		l, ok := constants.Canonicalize(extractLayout)
		if !ok {
			return fmt.Errorf("%q: %w", extractLayout, common.ErrUnsupportedLayout)
		}
		p.Layout = l
	}

	if extractFile != "" {
		out, err := p.ProcessFile(ctx, extractFile)
		logger.Info("extract.file.done", "exam_id", out.ExamID, "status", out.Status,
			"questions", out.Questions, "images", out.Images, "reason", out.Reason)
		return err
	}
	dir := extractDir
	if dir == "" {
		dir = cfg.Paths.QuestionJSON
	}
	if extractWatch {
		return watchAndExtract(ctx, dir, p)
	}
	_, err = p.ProcessDir(ctx, dir, p.ProcessFile)
	return err
}

// watchAndExtract processes every record once per session; rewriting a
// record after extraction fires another event that is ignored.
func watchAndExtract(ctx context.Context, dir string, p *processor.Processor) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Dir:         dir,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		return err
	}
	done := map[string]struct{}{}
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if _, seen := done[path]; seen {
				continue
			}
			done[path] = struct{}{}
			if _, err := p.ProcessFile(ctx, path); err != nil {
				logger.Error("extract.watch.failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				logger.Warn("extract.watch.error", "error", err)
			}
			if !ok {
				errs = nil
			}
		}
	}
}
