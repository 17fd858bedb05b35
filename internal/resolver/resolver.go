// Package resolver rebuilds 題庫 for papers the layout heuristics cannot
// read, by sending both PDFs to a model.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
	"github.com/freeseed/exams-tw/internal/extract"
	"github.com/freeseed/exams-tw/internal/llm"
)

// Fetcher makes sure a PDF is present at dest, downloading it when needed.
type Fetcher interface {
	EnsurePDF(ctx context.Context, url, dest string) (bool, error)
}

type Config struct {
	BankDir      string
	MinQuestions int // exams with at least this many questions are left alone
}

// Outcome reports what Resolve did with one exam.
type Outcome struct {
	Skipped   bool
	Reason    string
	Questions int
}

type Resolver struct {
	cfg     Config
	reader  llm.PaperReader
	fetcher Fetcher
	log     *slog.Logger
}

func New(cfg Config, reader llm.PaperReader, fetcher Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinQuestions <= 0 {
		cfg.MinQuestions = 20
	}
	return &Resolver{cfg: cfg, reader: reader, fetcher: fetcher, log: logger}
}

// Resolve replaces exam.Questions with the model's reading of the paper.
// exam is untouched unless the question and answer counts agree.
func (r *Resolver) Resolve(ctx context.Context, exam *entity.Exam) (Outcome, error) {
	log := common.LoggerFrom(ctx, r.log).With("exam_id", exam.ID)

	if n := len(exam.Questions); n >= r.cfg.MinQuestions {
		log.Debug("resolver.skip.filled", "questions", n)
		return Outcome{Skipped: true, Reason: fmt.Sprintf("already has %d questions", n), Questions: n}, nil
	}
	qName, aName := exam.QuestionFileName(), exam.AnswerFileName()
	if qName == "" || aName == "" {
		log.Info("resolver.skip.no_files", "question_file", qName, "answer_file", aName)
		return Outcome{Skipped: true, Reason: "missing question or answer file"}, nil
	}

	qPDF, err := r.load(ctx, exam.QuestionURL, qName)
	if err != nil {
		return Outcome{}, err
	}
	aPDF, err := r.load(ctx, exam.AnswerURL, aName)
	if err != nil {
		return Outcome{}, err
	}

	questions, err := r.reader.ReadQuestions(ctx, qPDF)
	if err != nil {
		return Outcome{}, fmt.Errorf("read questions: %w", err)
	}
	answers, err := r.reader.ReadAnswers(ctx, aPDF)
	if err != nil {
		return Outcome{}, fmt.Errorf("read answers: %w", err)
	}

	merged, err := Merge(questions, answers)
	if err != nil {
		log.Error("resolver.count_mismatch", "questions", len(questions), "answers", len(answers))
		return Outcome{}, err
	}
	exam.Questions = merged
	log.Info("resolver.ok", "questions", len(merged))
	return Outcome{Questions: len(merged)}, nil
}

func (r *Resolver) load(ctx context.Context, url, name string) ([]byte, error) {
	path := filepath.Join(r.cfg.BankDir, name)
	if r.fetcher != nil {
		downloaded, err := r.fetcher.EnsurePDF(ctx, url, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", name, common.ErrMissingFile, err)
		}
		if downloaded {
			r.log.Info("resolver.downloaded", "file", name)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, common.ErrMissingFile, err)
	}
	return b, nil
}

// Merge pairs model questions and answers by position. Item numbers are
// not consulted; differing lengths are an error.
func Merge(questions []llm.QuestionItem, answers []llm.AnswerItem) ([]entity.Question, error) {
	if len(questions) != len(answers) {
		return nil, fmt.Errorf("%d questions, %d answers: %w", len(questions), len(answers), common.ErrCountMismatch)
	}
	out := make([]entity.Question, len(questions))
	for i, q := range questions {
		choices := q.Choices
		if choices == nil {
			choices = []string{}
		}
		out[i] = entity.Question{
			Question: strings.TrimSpace(q.Question),
			Images:   []string{},
			Choices:  choices,
			Answer:   extract.AnswerIndex(answers[i].Answer),
		}
	}
	return out, nil
}
