package ingest

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/freeseed/exams-tw/internal/catalog"
	"github.com/freeseed/exams-tw/internal/examstore"
)

// Report summarizes one catalog run.
type Report struct {
	Rows             int
	Written          int
	Skipped          int
	Downloaded       int
	DownloadFailures int
	FirstID          string
	LastID           string
}

// Fetcher is the part of download.Fetcher the ingestor depends on.
type Fetcher interface {
	Download(ctx context.Context, url, dest string) error
}

// Ingestor is the behavior the commands depend on.
type Ingestor interface {
	// Run downloads every row's papers and writes one exam record per row that has at least one file.
	Run(ctx context.Context, rows []catalog.Row) (Report, error)
}

// Config holds the folders an ingest run reads and writes.
type Config struct {
	QuestionBank string
	QuestionJSON string
	// SkipExisting avoids re-requesting papers already on disk.
	SkipExisting bool
}

func (c Config) bankPath(name string) string {
	return filepath.Join(c.QuestionBank, name)
}

func (c Config) jsonPath(id string) string {
	return filepath.Join(c.QuestionJSON, examstore.FileName(id))
}

func defaultLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
