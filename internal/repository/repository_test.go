package repository

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/examstore"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), Config{DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLedgerOpenSQLite(t *testing.T) {
	l := openTestLedger(t)
	assert.Equal(t, dialect.SQLite, l.Dialect())
	require.NoError(t, l.HealthCheck(context.Background(), time.Second))
	// migrations are idempotent
	require.NoError(t, l.Migrate(context.Background()))
}

func TestLedgerOpenSQLiteFile(t *testing.T) {
	dsn := "file:" + t.TempDir() + "/logs/ledger.db"
	l, err := Open(context.Background(), Config{DSN: dsn}, nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "logs/ledger.db", sqlitePath("file:logs/ledger.db?_pragma=busy_timeout(5000)"))
	assert.Equal(t, "", sqlitePath("file::memory:"))
	assert.Equal(t, "", sqlitePath(":memory:"))
	assert.True(t, isPostgres("postgres://u:p@localhost/exams"))
	assert.False(t, isPostgres("file:ledger.db"))
}

func TestExtractJobLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestLedger(t), nil).(*extractJobRepo)
	clock := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	a, err := repo.Start(ctx, "fse00000001", string(constants.LayoutNumberedDot), "question_bank/a_Q.pdf")
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusRunning), a.Status)
	b, err := repo.Start(ctx, "fse00000002", "", "question_bank/b_Q.pdf")
	require.NoError(t, err)
	c, err := repo.Start(ctx, "fse00000001", string(constants.LayoutNumberedDot), "question_bank/a_Q.pdf")
	require.NoError(t, err)

	require.NoError(t, repo.Finish(ctx, a.ID, constants.JobStatusExtracted, 40, 3))
	require.NoError(t, repo.Skip(ctx, b.ID, "no layout"))
	require.NoError(t, repo.Fail(ctx, c.ID, "boom"))

	all, err := repo.List(ctx, JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.Equal(t, c.ID, all[0].ID)
	assert.Equal(t, a.ID, all[2].ID)

	got := all[2]
	assert.Equal(t, string(constants.JobStatusExtracted), got.Status)
	assert.Equal(t, 40, got.QuestionCount)
	assert.Equal(t, 3, got.ImageCount)
	assert.Nil(t, got.ErrorMessage)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.After(got.StartedAt))
	assert.Equal(t, a.StartedAt, got.StartedAt)

	failed, err := repo.List(ctx, JobFilter{Status: constants.JobStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].ErrorMessage)
	assert.Equal(t, "boom", *failed[0].ErrorMessage)

	byExam, err := repo.List(ctx, JobFilter{ExamID: "fse00000001", Limit: 1})
	require.NoError(t, err)
	require.Len(t, byExam, 1)
	assert.Equal(t, c.ID, byExam[0].ID)
}

func TestExtractJobFinishUnknown(t *testing.T) {
	repo := NewExtractJobRepository(openTestLedger(t), nil)
	err := repo.Finish(context.Background(), uuid.New(), constants.JobStatusExtracted, 1, 0)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestExtractJobQueueClaim(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestLedger(t), nil)

	q, err := repo.Enqueue(ctx, "fse00000001", "question_json/fse00000001.json")
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusQueued), q.Status)

	queued, err := repo.List(ctx, JobFilter{Status: constants.JobStatusQueued})
	require.NoError(t, err)
	require.Len(t, queued, 1)

	started, err := repo.Start(ctx, "fse00000001", string(constants.LayoutPUAInline), "question_bank/a_Q.pdf")
	require.NoError(t, err)
	assert.Equal(t, q.ID, started.ID)

	all, err := repo.List(ctx, JobFilter{ExamID: "fse00000001"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, string(constants.JobStatusRunning), all[0].Status)
	assert.Equal(t, "question_bank/a_Q.pdf", all[0].SourcePath)
	assert.Equal(t, string(constants.LayoutPUAInline), all[0].Layout)

	again, err := repo.Start(ctx, "fse00000001", "", "question_bank/a_Q.pdf")
	require.NoError(t, err)
	assert.NotEqual(t, q.ID, again.ID)
}

func TestExtractJobClosedJobsStayClosed(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestLedger(t), nil)
	job, err := repo.Start(ctx, "fse00000001", "", "a_Q.pdf")
	require.NoError(t, err)

	require.ErrorIs(t, repo.Finish(ctx, job.ID, constants.JobStatusRunning, 0, 0), common.ErrInvalidInput)
	require.NoError(t, repo.Finish(ctx, job.ID, constants.JobStatusExtracted, 10, 0))

	err = repo.Fail(ctx, job.ID, "late failure")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Contains(t, err.Error(), "already EXTRACTED")

	jobs, err := repo.List(ctx, JobFilter{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, string(constants.JobStatusExtracted), jobs[0].Status)
	assert.Nil(t, jobs[0].ErrorMessage)
}

func TestMongoFilter(t *testing.T) {
	assert.Empty(t, mongoFilter(examstore.Filter{}))

	f := mongoFilter(examstore.Filter{Year: "113", ExamName: "初等(考試)", ParsedOnly: true})
	require.Len(t, f, 3)
	assert.Equal(t, bson.E{Key: "考試年度", Value: "113"}, f[0])
	assert.Equal(t, bson.E{Key: "考試名稱", Value: bson.Regex{Pattern: `初等\(考試\)`}}, f[1])
	assert.Equal(t, bson.E{Key: "parsed", Value: true}, f[2])
}
