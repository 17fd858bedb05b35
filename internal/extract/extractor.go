package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
	"github.com/freeseed/exams-tw/internal/imaging"
	"github.com/freeseed/exams-tw/internal/pdfdoc"
)

// ImageWriter stores the pictures of one page and reports where they sat.
type ImageWriter interface {
	Compose(pdfBase string, page pdfdoc.Page) ([]imaging.Saved, error)
	SaveEach(pdfBase string, page pdfdoc.Page) ([]imaging.Saved, error)
}

// Result is the outcome of one extraction.
type Result struct {
	Layout    constants.Layout
	Questions []entity.Question
	Parsed    int
	Answers   int
	Images    int
	Assigned  int
}

type Extractor struct {
	rules  *Rules
	images ImageWriter
	logger *slog.Logger
}

func NewExtractor(rules *Rules, images ImageWriter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{rules: rules, images: images, logger: logger}
}

// Select returns the layout the rules assign to exam.
func (e *Extractor) Select(exam *entity.Exam) (Layout, error) {
	name, ok := e.rules.Select(exam)
	if !ok {
		return nil, fmt.Errorf("%s: %w", exam.ID, common.ErrUnsupportedLayout)
	}
	return ForName(name)
}

// Extract picks the layout for exam and builds its 題庫 from the parsed
// question paper and the answer sheet text.
func (e *Extractor) Extract(ctx context.Context, exam *entity.Exam, qDoc *pdfdoc.Document, answerText string) (Result, error) {
	layout, err := e.Select(exam)
	if err != nil {
		return Result{}, err
	}
	return e.ExtractWith(ctx, layout, qDoc, answerText)
}

// ExtractWith runs a given layout.
func (e *Extractor) ExtractWith(ctx context.Context, layout Layout, qDoc *pdfdoc.Document, answerText string) (Result, error) {
	log := common.LoggerFrom(ctx, e.logger).With("layout", layout.Name(), "pdf", qDoc.Path)
	res := Result{Layout: layout.Name()}

	questions := layout.Questions(pageText(qDoc))
	anchors := layout.Anchors(qDoc)
	res.Parsed = len(questions)
	log.Debug("extract.parsed", "questions", len(questions), "anchors", anchors.Len())

	byNumber := make(map[int]*Question, len(questions))
	for i := range questions {
		byNumber[questions[i].Number] = &questions[i]
	}

	pdfBase := strings.TrimSuffix(filepath.Base(qDoc.Path), filepath.Ext(qDoc.Path))
	for _, page := range qDoc.Pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if len(page.Images) == 0 {
			continue
		}
		saved, err := e.saveImages(layout, pdfBase, page)
		if err != nil {
			return res, fmt.Errorf("page %d images: %w", page.Number, err)
		}
		res.Images += len(saved)
		for _, s := range saved {
			anchor, ok := anchors.Before(s.Page, s.Top)
			if !ok {
				log.Warn("extract.image.unanchored", "image", s.Filename, "page", s.Page)
				continue
			}
			q, ok := byNumber[anchor.Number]
			if !ok {
				log.Warn("extract.image.no_question", "image", s.Filename, "number", anchor.Number)
				continue
			}
			q.Images = append(q.Images, s.Filename)
			res.Assigned++
		}
	}

	answers := layout.Answers(answerText)
	res.Answers = len(answers)
	if len(answers) != len(questions) {
		log.Warn("extract.count_mismatch", "questions", len(questions), "answers", len(answers))
	}
	res.Questions = Merge(questions, answers)
	log.Info("extract.ok", "questions", len(res.Questions), "images", res.Images, "assigned", res.Assigned)
	return res, nil
}

func (e *Extractor) saveImages(layout Layout, pdfBase string, page pdfdoc.Page) ([]imaging.Saved, error) {
	if layout.ComposeImages() {
		return e.images.Compose(pdfBase, page)
	}
	return e.images.SaveEach(pdfBase, page)
}

// Merge pairs questions with answers by position. Questions beyond the
// last answer are dropped.
func Merge(questions []Question, answers []int) []entity.Question {
	out := make([]entity.Question, 0, len(questions))
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		eq := entity.Question{
			Question: strings.TrimPrefix(q.Text, unknownAnswerMark),
			Images:   q.Images,
			Choices:  q.Choices,
			Answer:   answers[i],
		}
		if eq.Images == nil {
			eq.Images = []string{}
		}
		if eq.Choices == nil {
			eq.Choices = []string{}
		}
		out = append(out, eq)
	}
	return out
}
