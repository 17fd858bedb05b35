package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
	"github.com/freeseed/exams-tw/internal/examstore"
	"github.com/freeseed/exams-tw/internal/extract"
	"github.com/freeseed/exams-tw/internal/imaging"
	"github.com/freeseed/exams-tw/internal/pdfdoc"
	"github.com/freeseed/exams-tw/internal/pdftext"
	"github.com/freeseed/exams-tw/internal/repository"
	"github.com/freeseed/exams-tw/internal/resolver"
)

type fakeJobs struct {
	started []string
	queued  map[string][]uuid.UUID
	status  map[uuid.UUID]constants.JobStatus
	reasons map[uuid.UUID]string
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		queued:  map[string][]uuid.UUID{},
		status:  map[uuid.UUID]constants.JobStatus{},
		reasons: map[uuid.UUID]string{},
	}
}

func (f *fakeJobs) Enqueue(_ context.Context, examID, sourcePath string) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{ID: uuid.New(), ExamID: examID, SourcePath: sourcePath, Status: string(constants.JobStatusQueued)}
	f.queued[examID] = append(f.queued[examID], job.ID)
	f.status[job.ID] = constants.JobStatusQueued
	return job, nil
}

func (f *fakeJobs) Start(_ context.Context, examID, layout, sourcePath string) (*entity.ExtractJob, error) {
	f.started = append(f.started, examID+":"+layout)
	id := uuid.New()
	if q := f.queued[examID]; len(q) > 0 {
		id, f.queued[examID] = q[0], q[1:]
	}
	job := &entity.ExtractJob{ID: id, ExamID: examID, Layout: layout, Status: string(constants.JobStatusRunning)}
	f.status[job.ID] = constants.JobStatusRunning
	return job, nil
}

func (f *fakeJobs) Finish(_ context.Context, id uuid.UUID, status constants.JobStatus, questions, images int) error {
	f.status[id] = status
	return nil
}

func (f *fakeJobs) Fail(_ context.Context, id uuid.UUID, message string) error {
	f.status[id] = constants.JobStatusFailed
	f.reasons[id] = message
	return nil
}

func (f *fakeJobs) Skip(_ context.Context, id uuid.UUID, reason string) error {
	f.status[id] = constants.JobStatusSkipped
	f.reasons[id] = reason
	return nil
}

func (f *fakeJobs) List(context.Context, repository.JobFilter) ([]*entity.ExtractJob, error) {
	return nil, nil
}

type fakeImages struct{}

func (fakeImages) Compose(pdfBase string, page pdfdoc.Page) ([]imaging.Saved, error) {
	out := make([]imaging.Saved, len(page.Images))
	for i, im := range page.Images {
		out[i] = imaging.Saved{Filename: fmt.Sprintf("%s_page%d_img%d.png", pdfBase, page.Number, i+1), Page: page.Number, Top: im.Top(page.Height)}
	}
	return out, nil
}

func (f fakeImages) SaveEach(pdfBase string, page pdfdoc.Page) ([]imaging.Saved, error) {
	return f.Compose(pdfBase, page)
}

type fakeFallback struct {
	text  string
	calls int
}

func (f *fakeFallback) Extract(context.Context, string) (pdftext.Result, error) {
	f.calls++
	return pdftext.Result{Text: f.text}, nil
}

func strPtr(s string) *string { return &s }

type fixture struct {
	dir, bank, jsonDir string
	jobs               *fakeJobs
	p                  *Processor
	fallback           *fakeFallback
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		bank:     filepath.Join(dir, "bank"),
		jsonDir:  filepath.Join(dir, "json"),
		jobs:     newFakeJobs(),
		fallback: &fakeFallback{text: "Ａ B"},
	}
	require.NoError(t, os.MkdirAll(f.bank, 0o755))
	require.NoError(t, os.MkdirAll(f.jsonDir, 0o755))

	rules, err := extract.DefaultRules()
	require.NoError(t, err)
	x := extract.NewExtractor(rules, fakeImages{}, nil)
	f.p = NewProcessor(nil, f.jobs, x, f.fallback, f.bank)
	f.p.Open = func(path string, opts pdfdoc.Options) (*pdfdoc.Document, error) {
		if opts.SkipImages {
			return &pdfdoc.Document{Path: path}, nil
		}
		return &pdfdoc.Document{
			Path: path,
			Pages: []pdfdoc.Page{{
				Number: 1,
				Height: 800,
				Text:   "1 甲題\n\ue18c甲\n\ue18d乙\n2 乙題\n\ue18c一\n\ue18d二",
				Words:  []pdfdoc.Word{{Text: "1", Top: 100}, {Text: "2", Top: 400}},
				Images: []pdfdoc.Image{{Name: "Im0", Y0: 200, Y1: 300}},
			}},
		}, nil
	}
	return f
}

func (f *fixture) writeExam(t *testing.T, id string, withFiles bool) string {
	t.Helper()
	e := &entity.Exam{ID: id, QuestionFile: strPtr(id + "_Q.pdf"), AnswerFile: strPtr(id + "_A.pdf")}
	if withFiles {
		for _, name := range []string{id + "_Q.pdf", id + "_A.pdf"} {
			require.NoError(t, os.WriteFile(filepath.Join(f.bank, name), []byte("%PDF-1.4"), 0o644))
		}
	}
	path := filepath.Join(f.jsonDir, id+".json")
	require.NoError(t, examstore.Save(path, e))
	return path
}

func TestProcessFileExtracts(t *testing.T) {
	f := newFixture(t)
	path := f.writeExam(t, "fse00000122", true)

	out, err := f.p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusExtracted, out.Status)
	assert.Equal(t, string(constants.LayoutPUAInline), out.Layout)
	assert.Equal(t, 2, out.Questions)
	assert.Equal(t, 1, out.Images)
	assert.Equal(t, 1, f.fallback.calls)
	assert.Equal(t, constants.JobStatusExtracted, f.jobs.status[out.JobID])

	saved, err := examstore.Load(path)
	require.NoError(t, err)
	require.Len(t, saved.Questions, 2)
	assert.Equal(t, "甲題", saved.Questions[0].Question)
	assert.Equal(t, 1, saved.Questions[0].Answer)
	assert.Equal(t, []string{}, saved.Questions[0].Images)
	assert.Equal(t, []string{"fse00000122_Q_page1_img1.png"}, saved.Questions[1].Images)
}

func TestProcessFileSkipsUnknownLayout(t *testing.T) {
	f := newFixture(t)
	path := f.writeExam(t, "fse00009999", true)

	out, err := f.p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusSkipped, out.Status)
	assert.Equal(t, constants.JobStatusSkipped, f.jobs.status[out.JobID])
	assert.Contains(t, out.Reason, common.ErrUnsupportedLayout.Error())
}

func TestProcessFileSkipsMissingPDF(t *testing.T) {
	f := newFixture(t)
	path := f.writeExam(t, "fse00000123", false)

	out, err := f.p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusSkipped, out.Status)
	assert.Contains(t, out.Reason, "fse00000123_Q.pdf")
}

func TestProcessFileFailsOnOpenError(t *testing.T) {
	f := newFixture(t)
	path := f.writeExam(t, "fse00000124", true)
	f.p.Open = func(string, pdfdoc.Options) (*pdfdoc.Document, error) {
		return nil, errors.New("broken xref")
	}
	f.p.Fallback = nil

	out, err := f.p.ProcessFile(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, constants.JobStatusFailed, f.jobs.status[out.JobID])
}

func TestProcessFileForcedLayout(t *testing.T) {
	f := newFixture(t)
	f.p.Layout = constants.LayoutPUAInline
	path := f.writeExam(t, "fse00009999", true)

	out, err := f.p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusExtracted, out.Status)
}

func TestProcessDir(t *testing.T) {
	f := newFixture(t)
	f.writeExam(t, "fse00000122", true)
	f.writeExam(t, "fse00009999", true)
	require.NoError(t, os.WriteFile(filepath.Join(f.jsonDir, "fse00000001.json"), []byte("{"), 0o644))

	sum, err := f.p.ProcessDir(context.Background(), f.jsonDir, f.p.ProcessFile)
	require.NoError(t, err)
	assert.Equal(t, Summary{Files: 3, Extracted: 1, Skipped: 1, Failed: 1}, sum)

	// started records claim their queued job; the unreadable one stays queued
	assert.Empty(t, f.jobs.queued["fse00000122"])
	assert.Empty(t, f.jobs.queued["fse00009999"])
	require.Len(t, f.jobs.queued["fse00000001"], 1)
	assert.Equal(t, constants.JobStatusQueued, f.jobs.status[f.jobs.queued["fse00000001"][0]])
	assert.Len(t, f.jobs.status, 3)
}

type fakeResolver struct {
	out resolver.Outcome
	err error
}

func (r fakeResolver) Resolve(_ context.Context, exam *entity.Exam) (resolver.Outcome, error) {
	if r.err == nil && !r.out.Skipped {
		exam.Questions = []entity.Question{{Question: "模型題", Choices: []string{"a"}, Answer: 1}}
	}
	return r.out, r.err
}

func TestResolveFile(t *testing.T) {
	f := newFixture(t)
	path := f.writeExam(t, "fse00000200", false)
	f.p.Resolver = fakeResolver{out: resolver.Outcome{Questions: 1}}

	out, err := f.p.ResolveFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusResolved, out.Status)
	assert.Equal(t, []string{"fse00000200:model"}, f.jobs.started)

	saved, err := examstore.Load(path)
	require.NoError(t, err)
	require.Len(t, saved.Questions, 1)
	assert.Equal(t, []string{}, saved.Questions[0].Images)
}

func TestResolveFileMismatchFails(t *testing.T) {
	f := newFixture(t)
	path := f.writeExam(t, "fse00000201", false)
	f.p.Resolver = fakeResolver{err: common.ErrCountMismatch}

	out, err := f.p.ResolveFile(context.Background(), path)
	require.ErrorIs(t, err, common.ErrCountMismatch)
	assert.Equal(t, constants.JobStatusFailed, f.jobs.status[out.JobID])

	saved, err := examstore.Load(path)
	require.NoError(t, err)
	assert.Empty(t, saved.Questions)
}

func TestResolveFileSkipped(t *testing.T) {
	f := newFixture(t)
	path := f.writeExam(t, "fse00000202", false)
	f.p.Resolver = fakeResolver{out: resolver.Outcome{Skipped: true, Reason: "already has 25 questions", Questions: 25}}

	out, err := f.p.ResolveFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusSkipped, out.Status)
}
