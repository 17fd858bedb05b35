package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/freeseed/exams-tw/internal/catalog"
	"github.com/freeseed/exams-tw/internal/download"
	"github.com/freeseed/exams-tw/internal/examstore"
)

// CatalogIngestor turns catalog rows into downloaded papers plus exam records.
type CatalogIngestor struct {
	cfg     Config
	fetcher Fetcher
	seq     *catalog.Sequence
	logger  *slog.Logger
}

func NewCatalogIngestor(cfg Config, fetcher Fetcher, seq *catalog.Sequence, logger *slog.Logger) *CatalogIngestor {
	if seq == nil {
		seq = catalog.NewSequence(1)
	}
	return &CatalogIngestor{cfg: cfg, fetcher: fetcher, seq: seq, logger: defaultLogger(logger)}
}

var _ Ingestor = (*CatalogIngestor)(nil)

// Run processes rows in order. Download errors are logged and counted; only
// filesystem errors while writing a record abort the run.
func (i *CatalogIngestor) Run(ctx context.Context, rows []catalog.Row) (Report, error) {
	var rep Report
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Rows++

		qName, qOK := i.fetch(ctx, row.QuestionURL, row.QuestionFile(), &rep)
		aName, aOK := i.fetch(ctx, row.AnswerURL, row.AnswerFile(), &rep)
		if !qOK && !aOK {
			rep.Skipped++
			i.logger.Info("ingest.row.skipped", "exam", row.ExamName, "subject", row.Subject, "reason", "no files")
			continue
		}

		var qFile, aFile *string
		if qOK {
			qFile = &qName
		}
		if aOK {
			aFile = &aName
		}
		id := i.seq.Next()
		exam := row.Exam(id, qFile, aFile)
		if err := examstore.Save(i.cfg.jsonPath(id), &exam); err != nil {
			return rep, fmt.Errorf("write %s: %w", id, err)
		}
		if rep.FirstID == "" {
			rep.FirstID = id
		}
		rep.LastID = id
		rep.Written++
		i.logger.Info("ingest.row.written", "id", id, "question_file", qOK, "answer_file", aOK, "subject", row.Subject)
	}
	i.logger.Info("ingest.done",
		"rows", rep.Rows,
		"written", rep.Written,
		"skipped", rep.Skipped,
		"downloaded", rep.Downloaded,
		"download_failures", rep.DownloadFailures,
	)
	return rep, nil
}

// fetch downloads url into the question bank and reports whether the file is present afterwards.
func (i *CatalogIngestor) fetch(ctx context.Context, url, name string, rep *Report) (string, bool) {
	dest := i.cfg.bankPath(name)
	if url == "" {
		return name, download.Exists(dest)
	}
	if i.cfg.SkipExisting && download.IsPDF(dest) {
		return name, true
	}
	if err := i.fetcher.Download(ctx, url, dest); err != nil {
		rep.DownloadFailures++
		i.logger.Warn("ingest.download.failed", "file", name, "url", url, "error", err)
	} else {
		rep.Downloaded++
	}
	return name, download.Exists(dest)
}
