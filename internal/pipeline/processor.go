package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
	"github.com/freeseed/exams-tw/internal/examstore"
	"github.com/freeseed/exams-tw/internal/extract"
	"github.com/freeseed/exams-tw/internal/pdfdoc"
	"github.com/freeseed/exams-tw/internal/pdftext"
	"github.com/freeseed/exams-tw/internal/repository"
	"github.com/freeseed/exams-tw/internal/resolver"
)

// Extractor is what the extract stage needs from extract.Extractor.
type Extractor interface {
	Select(exam *entity.Exam) (extract.Layout, error)
	ExtractWith(ctx context.Context, layout extract.Layout, qDoc *pdfdoc.Document, answerText string) (extract.Result, error)
}

// TextFallback reads an answer sheet the native reader could not.
type TextFallback interface {
	Extract(ctx context.Context, path string) (pdftext.Result, error)
}

// Resolver rebuilds 題庫 with a model.
type Resolver interface {
	Resolve(ctx context.Context, exam *entity.Exam) (resolver.Outcome, error)
}

// Opener parses a PDF.
type Opener func(path string, opts pdfdoc.Options) (*pdfdoc.Document, error)

// Outcome is what happened to one exam record.
type Outcome struct {
	ExamID    string
	JobID     uuid.UUID
	Status    constants.JobStatus
	Layout    string
	Questions int
	Images    int
	Reason    string
}

// Summary counts outcomes over a folder.
type Summary struct {
	Files     int
	Extracted int
	Resolved  int
	Skipped   int
	Failed    int
}

// Processor coordinates one exam record through PDF parsing, extraction
// and the ledger.
type Processor struct {
	Logger    *slog.Logger
	Jobs      repository.ExtractJobRepository
	Extractor Extractor
	Fallback  TextFallback
	Resolver  Resolver
	BankDir   string
	Open      Opener
	// Layout forces a layout instead of the rules; empty means use the rules.
	Layout constants.Layout
}

func NewProcessor(logger *slog.Logger, jobs repository.ExtractJobRepository, x Extractor, fallback TextFallback, bankDir string) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Jobs: jobs, Extractor: x, Fallback: fallback, BankDir: bankDir, Open: pdfdoc.OpenWith}
}

const modelLayout = "model"

// ProcessFile runs the layout extractor for the exam record at jsonPath and
// writes 題庫 back in place.
func (p *Processor) ProcessFile(ctx context.Context, jsonPath string) (Outcome, error) {
	exam, err := examstore.Load(jsonPath)
	if err != nil {
		p.Logger.Error("processor.load.failed", "path", jsonPath, "err", err)
		return Outcome{Status: constants.JobStatusFailed}, err
	}
	ctx = common.WithExamID(ctx, exam.ID)
	log := common.LoggerFrom(ctx, p.Logger)
	out := Outcome{ExamID: exam.ID}

	layout, layoutErr := p.layout(exam)
	if layout != nil {
		out.Layout = string(layout.Name())
	}
	qPath := p.bankPath(exam.QuestionFileName())
	job, err := p.Jobs.Start(ctx, exam.ID, out.Layout, qPath)
	if err != nil {
		return out, err
	}
	out.JobID = job.ID

	if layoutErr != nil {
		return p.skip(ctx, out, layoutErr.Error())
	}
	aPath := p.bankPath(exam.AnswerFileName())
	if reason := missingFiles(qPath, aPath); reason != "" {
		return p.skip(ctx, out, reason)
	}

	qDoc, err := p.Open(qPath, pdfdoc.Options{})
	if err != nil {
		return p.fail(ctx, out, fmt.Errorf("open question pdf: %w", err))
	}
	answerText, err := p.answerText(ctx, aPath)
	if err != nil {
		return p.fail(ctx, out, err)
	}

	res, err := p.Extractor.ExtractWith(ctx, layout, qDoc, answerText)
	if err != nil {
		return p.fail(ctx, out, err)
	}
	if len(res.Questions) == 0 {
		return p.skip(ctx, out, "no questions parsed")
	}
	exam.Questions = res.Questions
	if err := examstore.Save(jsonPath, exam); err != nil {
		return p.fail(ctx, out, fmt.Errorf("save exam: %w", err))
	}

	out.Status = constants.JobStatusExtracted
	out.Questions = len(res.Questions)
	out.Images = res.Assigned
	if err := p.Jobs.Finish(ctx, job.ID, out.Status, out.Questions, out.Images); err != nil {
		return out, err
	}
	log.Info("processor.extract.ok", "job_id", job.ID, "layout", out.Layout,
		"questions", out.Questions, "images", out.Images)
	return out, nil
}

// ResolveFile asks the model resolver for the exam record at jsonPath and
// writes 題庫 back in place when it succeeds.
func (p *Processor) ResolveFile(ctx context.Context, jsonPath string) (Outcome, error) {
	if p.Resolver == nil {
		return Outcome{}, errors.New("processor: no resolver configured")
	}
	exam, err := examstore.Load(jsonPath)
	if err != nil {
		p.Logger.Error("processor.load.failed", "path", jsonPath, "err", err)
		return Outcome{Status: constants.JobStatusFailed}, err
	}
	ctx = common.WithExamID(ctx, exam.ID)
	out := Outcome{ExamID: exam.ID, Layout: modelLayout}

	job, err := p.Jobs.Start(ctx, exam.ID, modelLayout, p.bankPath(exam.QuestionFileName()))
	if err != nil {
		return out, err
	}
	out.JobID = job.ID

	res, err := p.Resolver.Resolve(ctx, exam)
	if err != nil {
		return p.fail(ctx, out, err)
	}
	if res.Skipped {
		out.Questions = res.Questions
		return p.skip(ctx, out, res.Reason)
	}
	if err := examstore.Save(jsonPath, exam); err != nil {
		return p.fail(ctx, out, fmt.Errorf("save exam: %w", err))
	}
	out.Status = constants.JobStatusResolved
	out.Questions = res.Questions
	if err := p.Jobs.Finish(ctx, job.ID, out.Status, out.Questions, 0); err != nil {
		return out, err
	}
	common.LoggerFrom(ctx, p.Logger).Info("processor.resolve.ok", "job_id", job.ID, "questions", out.Questions)
	return out, nil
}

// ProcessDir queues a ledger job for every exam record in dir, then runs fn
// over them in order. A failing file is logged and counted; only a
// cancelled context, an unreadable folder or a ledger error stops the walk.
func (p *Processor) ProcessDir(ctx context.Context, dir string, fn func(context.Context, string) (Outcome, error)) (Summary, error) {
	var sum Summary
	paths, err := examstore.List(dir)
	if err != nil {
		return sum, err
	}
	for _, path := range paths {
		if _, err := p.Jobs.Enqueue(ctx, examstore.IDFromPath(path), path); err != nil {
			return sum, fmt.Errorf("queue %s: %w", filepath.Base(path), err)
		}
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Files++
		out, err := fn(ctx, path)
		if err != nil {
			p.Logger.Error("processor.file.failed", "path", path, "exam_id", out.ExamID, "err", err)
			sum.Failed++
			continue
		}
		switch out.Status {
		case constants.JobStatusExtracted:
			sum.Extracted++
		case constants.JobStatusResolved:
			sum.Resolved++
		case constants.JobStatusSkipped:
			sum.Skipped++
		}
	}
	p.Logger.Info("processor.dir.done", "dir", dir, "files", sum.Files,
		"extracted", sum.Extracted, "resolved", sum.Resolved, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, nil
}

func (p *Processor) layout(exam *entity.Exam) (extract.Layout, error) {
	if p.Layout != "" {
		return extract.ForName(p.Layout)
	}
	return p.Extractor.Select(exam)
}

// answerText prefers the native reader and falls back to pdftotext when it
// errors or finds no text.
func (p *Processor) answerText(ctx context.Context, path string) (string, error) {
	doc, err := p.Open(path, pdfdoc.Options{SkipImages: true})
	if err == nil {
		if text := doc.Text(); strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if p.Fallback == nil {
		if err == nil {
			err = errors.New("no text")
		}
		return "", fmt.Errorf("read answer pdf: %w", err)
	}
	common.LoggerFrom(ctx, p.Logger).Warn("processor.answer.fallback", "path", path, "err", err)
	res, ferr := p.Fallback.Extract(ctx, path)
	if ferr != nil {
		return "", fmt.Errorf("read answer pdf: %w", ferr)
	}
	return res.Text, nil
}

func (p *Processor) bankPath(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(p.BankDir, name)
}

func missingFiles(paths ...string) string {
	for _, path := range paths {
		if path == "" {
			return "missing question or answer file"
		}
		if st, err := os.Stat(path); err != nil || !st.Mode().IsRegular() {
			return "file not found: " + filepath.Base(path)
		}
	}
	return ""
}

func (p *Processor) skip(ctx context.Context, out Outcome, reason string) (Outcome, error) {
	out.Status = constants.JobStatusSkipped
	out.Reason = reason
	common.LoggerFrom(ctx, p.Logger).Info("processor.skip", "job_id", out.JobID, "reason", reason)
	return out, p.Jobs.Skip(ctx, out.JobID, reason)
}

func (p *Processor) fail(ctx context.Context, out Outcome, cause error) (Outcome, error) {
	out.Status = constants.JobStatusFailed
	out.Reason = cause.Error()
	common.LoggerFrom(ctx, p.Logger).Error("processor.failed", "job_id", out.JobID, "err", cause)
	if err := p.Jobs.Fail(ctx, out.JobID, cause.Error()); err != nil {
		p.Logger.Error("processor.fail.record", "job_id", out.JobID, "err", err)
	}
	return out, cause
}
