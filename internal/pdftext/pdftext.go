// Package pdftext shells out to poppler's pdftotext for answer sheets the
// native reader cannot parse.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
}

type Result struct {
	Text     string
	Pages    int
	Duration time.Duration
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewExtractor builds an Extractor. A nil runner executes real commands.
func NewExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract returns the normalized text of the PDF at path.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{}, fmt.Errorf("pdftotext %s: %w (%s)", path, err, strings.TrimSpace(truncate(string(errb), 512)))
	}
	raw := string(out)
	res := Result{
		// form feed separates pages
		Pages:    1 + strings.Count(strings.TrimRight(raw, "\f\n"), "\f"),
		Text:     Normalize(raw),
		Duration: time.Since(start),
	}
	e.logger.Debug("pdftext.ok", "path", path, "pages", res.Pages, "chars", len(res.Text))
	return res, nil
}

var trailingSpace = regexp.MustCompile(`[ \t]+\n`)

// Normalize turns page breaks into newlines, folds no-break spaces and
// drops trailing blanks.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = trailingSpace.ReplaceAllString(s, "\n")
	return strings.TrimRight(s, " \t\n")
}
